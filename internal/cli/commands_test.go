package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/store/memstore"
	"github.com/roach88/rollcall/internal/testutil"
)

// testOptions returns options that run every command against s.
func testOptions(s *memstore.Store) *RootOptions {
	cfg := config.Config{
		Backend:       config.BackendSQLite,
		DBPath:        "unused.db",
		RosterTable:   testutil.RosterTable,
		LedgerTable:   testutil.LedgerTable,
		AttendanceDay: "saturday",
		MaxAttempts:   3,
		RetryDelay:    time.Millisecond,
		StoreTimeout:  time.Second,
		Addr:          "127.0.0.1:0",
		SessionKey:    "0123456789abcdef0123456789abcdef",
	}
	return &RootOptions{
		Config:   &cfg,
		Logger:   testutil.Discard(),
		Tables:   s,
		Clock:    engine.FixedClock(testutil.Saturday.Add(9 * time.Hour)),
		Sessions: engine.NewFixedGenerator("session-1", "session-2", "session-3"),
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestMembersText(t *testing.T) {
	out, err := execute(t, testOptions(testutil.NewStore()), "members", "--year", "2024", "--group", "1")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "members_text", []byte(out))
}

func TestMembersJSON(t *testing.T) {
	out, err := execute(t, testOptions(testutil.NewStore()),
		"--format", "json", "members", "--year", "2024.0", "--group", "2")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	members := resp.Data.([]any)
	require.Len(t, members, 2)
	assert.Equal(t, "최유리", members[0].(map[string]any)["name"])
	assert.Equal(t, "Transferred", members[1].(map[string]any)["status"])
}

func TestMembersRequiresFlags(t *testing.T) {
	_, err := execute(t, testOptions(testutil.NewStore()), "members", "--year", "2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group")
}

func TestYearsAndGroups(t *testing.T) {
	opts := testOptions(testutil.NewStore())

	out, err := execute(t, opts, "years")
	require.NoError(t, err)
	assert.Equal(t, "2024\n2023\n", out)

	out, err = execute(t, opts, "groups", "--year", "2024")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)

	out, err = execute(t, opts, "groups", "--year", "1999")
	require.NoError(t, err)
	assert.Equal(t, "(none)\n", out)
}

func TestStoreUnavailable(t *testing.T) {
	s := testutil.NewStore()
	s.SetHook(testutil.FailOn(memstore.OpRead, testutil.RosterTable, errors.New("offline")))

	out, err := execute(t, testOptions(s), "years")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E103]")
}

func TestSubmit(t *testing.T) {
	s := testutil.NewStore()

	out, err := execute(t, testOptions(s), "submit", filepath.Join("testdata", "batches", "group1.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Recorded 3 entries for 2024/1 on 2024-05-04 (session session-1)")
	assert.Contains(t, out, "ledger: written, roster: written")
	assert.Contains(t, out, "박지성")

	ledger := testutil.Ledger(t, s)
	require.Len(t, ledger, 3)
	for _, r := range ledger {
		if r.Name == "박지성" {
			assert.Equal(t, attendance.Present, r.Presence, "aliases are canonicalized")
		}
	}
}

func TestSubmitJSON(t *testing.T) {
	s := testutil.NewStore()

	out, err := execute(t, testOptions(s), "--format", "json",
		"submit", filepath.Join("testdata", "batches", "group1.yaml"))
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "session-1", data["session"])
	assert.Equal(t, "2024-05-04", data["date"])
	records := data["records"].([]any)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, data["date"], r.(map[string]any)["date"], "records use the same date format as the receipt")
	}
	assert.Equal(t, []any{map[string]any{"name": "박지성", "from": "LongAbsent", "to": "Active"}}, data["status_changes"])
}

func TestSubmitFlagsOverrideBatch(t *testing.T) {
	s := testutil.NewStore()
	path := filepath.Join("testdata", "batches", "no_selection.yaml")

	out, err := execute(t, testOptions(s), "submit", path, "--year", "2024", "--group", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2024/1 on 2024-05-04", "date defaults to the attendance day")
}

func TestSubmitRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
		hook memstore.Hook
		code string
		exit int
	}{
		{
			name: "no group",
			args: []string{"submit", filepath.Join("testdata", "batches", "no_selection.yaml"), "--year", "2024"},
			code: ErrCodeValidation,
			exit: ExitFailure,
		},
		{
			name: "sunday",
			args: []string{"submit", filepath.Join("testdata", "batches", "group1.yaml"), "--date", "2024-05-05"},
			code: ErrCodeValidation,
			exit: ExitFailure,
		},
		{
			name: "unknown member",
			args: []string{"submit", filepath.Join("testdata", "batches", "group1.yaml"), "--group", "2"},
			code: ErrCodeValidation,
			exit: ExitFailure,
		},
		{
			name: "schema violation",
			args: []string{"submit", filepath.Join("testdata", "batches", "invalid.yaml")},
			code: ErrCodeSchema,
			exit: ExitFailure,
		},
		{
			name: "missing file",
			args: []string{"submit", filepath.Join("testdata", "batches", "missing.yaml")},
			code: ErrCodeNotFound,
			exit: ExitCommandError,
		},
		{
			name: "roster write fails",
			args: []string{"submit", filepath.Join("testdata", "batches", "group1.yaml")},
			hook: testutil.FailOn(memstore.OpWrite, testutil.RosterTable, errors.New("offline")),
			code: ErrCodePartialCommit,
			exit: ExitFailure,
		},
		{
			name: "ledger write fails",
			args: []string{"submit", filepath.Join("testdata", "batches", "group1.yaml")},
			hook: testutil.FailOn(memstore.OpWrite, testutil.LedgerTable, errors.New("offline")),
			code: ErrCodeStore,
			exit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.NewStore()
			s.SetHook(tt.hook)

			out, err := execute(t, testOptions(s), append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestValidate(t *testing.T) {
	opts := testOptions(memstore.New())

	out, err := execute(t, opts, "validate", filepath.Join("testdata", "batches", "group1.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries valid for 2024/1 on 2024-05-04")

	out, err = execute(t, opts, "validate", filepath.Join("testdata", "batches", "group1.yaml"), "--date", "2024-05-06")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "attendance is recorded on Saturday")

	out, err = execute(t, opts, "validate", filepath.Join("testdata", "batches", "no_selection.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "date is required")
}

func TestStatsText(t *testing.T) {
	s := testutil.NewStore()
	testutil.SeedLedger(s, []attendance.Record{
		testutil.Record("1", "김민수", attendance.Present, attendance.NoReason),
		testutil.Record("1", "박지성", attendance.Present, attendance.NoReason),
		testutil.Record("1", "이영희", attendance.Absent, attendance.ReasonWork),
	})

	out, err := execute(t, testOptions(s), "stats", "--year", "2024")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "stats_text", []byte(out))

	out, err = execute(t, testOptions(s), "stats", "--year", "2024", "--dates")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-04\n", out)
}

func TestStatsErrors(t *testing.T) {
	opts := testOptions(testutil.NewStore())

	out, err := execute(t, opts, "stats", "--year", "2024")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")

	out, err = execute(t, opts, "stats", "--year", "2024", "--date", "04/05/2024")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestRosterImportAndExport(t *testing.T) {
	s := testutil.NewStore()
	opts := testOptions(s)

	out, err := execute(t, opts, "roster", "import", filepath.Join("testdata", "roster.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 members")

	assert.Equal(t, []attendance.Member{
		{Year: "2025", Group: "1", Name: "한지민", Role: "leader", Status: attendance.StatusActive},
		{Year: "2025", Group: "1", Name: "김민수", Role: "member", Status: attendance.StatusLongAbsent},
	}, testutil.Roster(t, s))

	out, err = execute(t, opts, "roster", "import", filepath.Join("testdata", "roster.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Roster unchanged")

	out, err = execute(t, opts, "roster", "export")
	require.NoError(t, err)
	assert.Equal(t, "year,group,name,role,status\n2025,1,한지민,leader,Active\n2025,1,김민수,member,LongAbsent\n", out)

	path := filepath.Join(t.TempDir(), "roster.csv")
	_, err = execute(t, opts, "roster", "export", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "한지민")
}

func TestRosterImportErrors(t *testing.T) {
	dir := t.TempDir()
	noName := filepath.Join(dir, "no_name.csv")
	require.NoError(t, os.WriteFile(noName, []byte("year,group,name,status\n2025,1,,Active\n"), 0644))

	opts := testOptions(testutil.NewStore())

	out, err := execute(t, opts, "roster", "import", filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")

	out, err = execute(t, opts, "roster", "import", noName)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}
