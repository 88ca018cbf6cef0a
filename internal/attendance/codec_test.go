package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  김철수 ", "김철수"},
		{"2024.0", "2024"},
		{"3.0", "3"},
		{"10.05", "10.05"},
		{"v1.0", "v1.0"},
		{".0", ".0"},
		{"nan", ""},
		{"None", ""},
		// Decomposed Hangul (NFD) is recomposed.
		{"\u1100\u1175\u11b7", "김"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCell(tt.in), "CleanCell(%q)", tt.in)
	}
}

func TestParseEnums_AcceptKoreanAliases(t *testing.T) {
	st, err := ParseStatus("장기 미결석")
	require.NoError(t, err)
	assert.Equal(t, StatusLongAbsent, st)

	p, err := ParsePresence("불참")
	require.NoError(t, err)
	assert.Equal(t, Absent, p)

	r, err := ParseReason("타교회")
	require.NoError(t, err)
	assert.Equal(t, ReasonOtherChurch, r)

	r, err = ParseReason("")
	require.NoError(t, err)
	assert.Equal(t, NoReason, r)

	_, err = ParseStatus("Retired")
	assert.Error(t, err)
}

func TestCheckPairing(t *testing.T) {
	assert.NoError(t, CheckPairing(Present, NoReason))
	assert.NoError(t, CheckPairing(Absent, ReasonHealth))
	assert.Error(t, CheckPairing(Present, ReasonWork))
	assert.Error(t, CheckPairing(Absent, NoReason))
	assert.Error(t, CheckPairing(Absent, Reason("Vacation")))
	assert.Error(t, CheckPairing(Presence("Late"), NoReason))
}

func TestDecodeRoster_KoreanHeadersAndCleaning(t *testing.T) {
	header := []string{"년도", "목양반", "이름", "직분", "상태"}
	rows := [][]string{
		{"2024.0", "1.0", "김철수", "집사", "출석중"},
		{"", "", "", "", ""},
		{"2024", "1", "이영희", "nan", "Retired"},
	}

	members, err := DecodeRoster(header, rows)
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, Member{Year: "2024", Group: "1", Name: "김철수", Role: "집사", Status: StatusActive}, members[0])
	assert.Equal(t, "", members[1].Role)
	assert.Equal(t, Status("Retired"), members[1].Status)
}

func TestDecodeRoster_MissingIdentity(t *testing.T) {
	_, err := DecodeRoster(RosterHeader, [][]string{{"2024", "", "Kim", "", "Active"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRow)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Row)
	assert.Equal(t, ColGroup, rowErr.Column)
}

func TestDecodeRoster_DuplicateIdentity(t *testing.T) {
	_, err := DecodeRoster(RosterHeader, [][]string{
		{"2024", "1", "Kim", "leader", "Active"},
		{"2024", "2", "Kim", "", "Active"},
		{"2024.0", "1", " Kim ", "", "LongAbsent"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), "duplicates row 1")

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, ColName, rowErr.Column)
}

func TestDecodeRoster_MissingColumn(t *testing.T) {
	_, err := DecodeRoster([]string{"year", "group", "name"}, nil)
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestDecodeLedger_Strict(t *testing.T) {
	tests := []struct {
		name   string
		row    []string
		column string
	}{
		{"bad date", []string{"2024", "05/04/2024", "Kim", "1", "Present", "-"}, ColDate},
		{"bad presence", []string{"2024", "2024-05-04", "Kim", "1", "Late", "-"}, ColPresence},
		{"bad reason", []string{"2024", "2024-05-04", "Kim", "1", "Absent", "Vacation"}, ColAbsenceReason},
		{"present with reason", []string{"2024", "2024-05-04", "Kim", "1", "Present", "Work"}, ColAbsenceReason},
		{"absent without reason", []string{"2024", "2024-05-04", "Kim", "1", "Absent", "-"}, ColAbsenceReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLedger(LedgerHeader, [][]string{tt.row})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRow)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.column, rowErr.Column)
		})
	}
}

func TestLedgerRoundTrip_Canonicalizes(t *testing.T) {
	header := []string{"년도", "날짜", "이름", "목양반", "출석여부", "불참사유"}
	rows := [][]string{{"2024", "2024-05-04", "Kim", "1", "불참", "건강"}}

	records, err := DecodeLedger(header, rows)
	require.NoError(t, err)

	outHeader, outRows := EncodeLedger(records)
	assert.Equal(t, LedgerHeader, outHeader)
	assert.Equal(t, [][]string{{"2024", "2024-05-04", "Kim", "1", "Absent", "Health"}}, outRows)
}

func TestDecodeEmptyTables(t *testing.T) {
	members, err := DecodeRoster(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, members)

	records, err := DecodeLedger(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNextAttendanceDay(t *testing.T) {
	// 2024-05-01 is a Wednesday.
	wed := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-04", NextAttendanceDay(wed, time.Saturday).Format(DateLayout))

	sat := time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-04", NextAttendanceDay(sat, time.Saturday).Format(DateLayout))

	sun := time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-11", NextAttendanceDay(sun, time.Saturday).Format(DateLayout))
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Saturday")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	d, err = ParseWeekday(" sunday ")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	_, err = ParseWeekday("sabbath")
	assert.Error(t, err)
}
