// Package testutil provides shared fixtures and store hooks for tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/store/memstore"
)

// Table names used by fixtures. They match the engine defaults.
const (
	RosterTable = "roster"
	LedgerTable = "attendance"
)

// Saturday is the attendance date most fixtures submit for.
var Saturday = time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)

// Members returns a small two-year roster.
//
// 2024 group 1 is deliberately not in rank order.
func Members() []attendance.Member {
	return []attendance.Member{
		{Year: "2024", Group: "1", Name: "박지성", Role: "member", Status: attendance.StatusLongAbsent},
		{Year: "2024", Group: "1", Name: "김민수", Role: "leader", Status: attendance.StatusActive},
		{Year: "2024", Group: "1", Name: "이영희", Role: "member", Status: attendance.StatusActive},
		{Year: "2024", Group: "2", Name: "최유리", Role: "leader", Status: attendance.StatusActive},
		{Year: "2024", Group: "2", Name: "정하늘", Role: "member", Status: attendance.StatusTransferred},
		{Year: "2023", Group: "1", Name: "김민수", Role: "member", Status: attendance.StatusActive},
	}
}

// NewStore returns a memstore seeded with Members and an empty ledger.
func NewStore() *memstore.Store {
	s := memstore.New()
	SeedRoster(s, Members())
	return s
}

// SeedRoster replaces the roster table with members.
func SeedRoster(s *memstore.Store, members []attendance.Member) {
	header, rows := attendance.EncodeRoster(members)
	s.Seed(RosterTable, header, rows)
}

// SeedLedger replaces the ledger table with records.
func SeedLedger(s *memstore.Store, records []attendance.Record) {
	header, rows := attendance.EncodeLedger(records)
	s.Seed(LedgerTable, header, rows)
}

// Record builds a ledger record for Saturday.
func Record(group, name string, p attendance.Presence, r attendance.Reason) attendance.Record {
	return attendance.Record{Year: "2024", Date: Saturday, Name: name, Group: group, Presence: p, Reason: r}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Date parses YYYY-MM-DD or fails the test.
func Date(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := attendance.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}
