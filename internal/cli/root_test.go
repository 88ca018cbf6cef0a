package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rollcall", cmd.Use)
	assert.Contains(t, cmd.Long, "ROLLCALL_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"members"}, {"years"}, {"groups"}, {"submit"}, {"validate"},
		{"stats"}, {"roster", "import"}, {"roster", "export"}, {"serve"}, {"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"backend", "db", "mongo-uri", "mongo-db", "attendance-day"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Empty(t, f.DefValue, "%s must not mask the environment", name)
	}
}

func TestSubmitCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	submitCmd, _, err := cmd.Find([]string{"submit"})
	require.NoError(t, err)

	for _, name := range []string{"year", "group", "date"} {
		require.NotNil(t, submitCmd.Flags().Lookup(name), name)
	}
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--format", "invalid", "years"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFlagOverrides(t *testing.T) {
	t.Setenv("ROLLCALL_BACKEND", "sqlite")
	t.Setenv("ROLLCALL_ATTENDANCE_DAY", "saturday")

	opts := &RootOptions{Backend: config.BackendMongo, MongoDatabase: "church", AttendanceDay: "Sunday"}
	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMongo, cfg.Backend)
	assert.Equal(t, "church", cfg.MongoDatabase)
	assert.Equal(t, "Sunday", cfg.AttendanceDay)

	// Loaded once.
	opts.Backend = "sheets"
	cfg, err = opts.config()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMongo, cfg.Backend)
}

func TestConfigFlagOverridesValidated(t *testing.T) {
	opts := &RootOptions{Backend: "sheets"}
	_, err := opts.config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestOpenFailureReported(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--backend", "sheets", "years"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E005]")
}

func TestSQLiteBackend(t *testing.T) {
	dbPath := t.TempDir() + "/rollcall.db"

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--db", dbPath, "years"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "(none)\n", buf.String())
}
