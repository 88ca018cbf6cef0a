package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/store/memstore"
)

// Rendezvous returns a hook that holds the first n writes of table until all
// n have arrived. Each writer has finished its read by the time it writes, and
// nobody has written yet, so all n writers hold the same snapshot: exactly
// one wins and the others must retry. Later writes pass through.
func Rendezvous(table string, n int) memstore.Hook {
	var mu sync.Mutex
	arrived := 0
	release := make(chan struct{})

	return func(ctx context.Context, op memstore.Op, name string) error {
		if op != memstore.OpWrite || name != table {
			return nil
		}
		mu.Lock()
		arrived++
		k := arrived
		if k == n {
			close(release)
		}
		mu.Unlock()

		if k > n {
			return nil
		}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// FailOn returns a hook that fails every op on table with err.
func FailOn(op memstore.Op, table string, err error) memstore.Hook {
	return func(_ context.Context, o memstore.Op, name string) error {
		if o == op && name == table {
			return err
		}
		return nil
	}
}

// FailFirst returns a hook that fails the first n ops on table with err.
func FailFirst(op memstore.Op, table string, n int, err error) memstore.Hook {
	var mu sync.Mutex
	seen := 0
	return func(_ context.Context, o memstore.Op, name string) error {
		if o != op || name != table {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		seen++
		if seen <= n {
			return err
		}
		return nil
	}
}

// Ledger reads and decodes the ledger table or fails the test.
func Ledger(t testing.TB, s *memstore.Store) []attendance.Record {
	t.Helper()
	tbl, err := s.Read(context.Background(), LedgerTable)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	records, err := attendance.DecodeLedger(tbl.Header, tbl.Rows)
	if err != nil {
		t.Fatalf("decode ledger: %v", err)
	}
	return records
}

// Roster reads and decodes the roster table or fails the test.
func Roster(t testing.TB, s *memstore.Store) []attendance.Member {
	t.Helper()
	tbl, err := s.Read(context.Background(), RosterTable)
	if err != nil {
		t.Fatalf("read roster: %v", err)
	}
	members, err := attendance.DecodeRoster(tbl.Header, tbl.Rows)
	if err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	return members
}

// Stall returns a hook that holds every op on table until its context ends.
func Stall(op memstore.Op, table string) memstore.Hook {
	return func(ctx context.Context, o memstore.Op, name string) error {
		if o != op || name != table {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}
}
