// Package memstore provides an in-memory TableStore used by tests and the
// scenario harness.
//
// It honours the same conditional-write contract as the SQLite store and adds
// two test affordances: per-table operation counters, and a Hook that runs
// before every operation so tests can inject failures or hold an operation
// back to force a specific interleaving of concurrent submissions.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/rollcall/internal/store"
)

// Op identifies a store operation passed to a Hook.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Hook runs before an operation, outside the store lock, so it may block.
// A non-nil error aborts the operation and is returned to the caller.
type Hook func(ctx context.Context, op Op, table string) error

// Store is an in-memory TableStore. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	tables map[string]store.Table
	counts map[Op]map[string]int
	hook   Hook
}

var _ store.TableStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		tables: make(map[string]store.Table),
		counts: map[Op]map[string]int{OpRead: {}, OpWrite: {}},
	}
}

// SetHook installs h, replacing any previous hook. A nil h removes it.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Seed replaces a table unconditionally. Seeding is not counted as a write.
func (s *Store) Seed(name string, header []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = store.Table{
		Name:     name,
		Header:   append([]string{}, header...),
		Rows:     store.CloneRows(rows),
		Revision: store.Fingerprint(header, rows),
	}
}

// Reads returns how many reads of table have been attempted.
func (s *Store) Reads(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[OpRead][table]
}

// Writes returns how many writes of table have been attempted,
// including rejected ones.
func (s *Store) Writes(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[OpWrite][table]
}

func (s *Store) before(ctx context.Context, op Op, table string) error {
	s.mu.Lock()
	s.counts[op][table]++
	h := s.hook
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if h != nil {
		return h(ctx, op, table)
	}
	return nil
}

// Read returns a deep copy of the named table.
func (s *Store) Read(ctx context.Context, name string) (store.Table, error) {
	if err := s.before(ctx, OpRead, name); err != nil {
		return store.Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.tables[name]
	if !ok {
		return store.Table{Name: name, Header: []string{}, Rows: [][]string{}, Revision: store.EmptyRevision}, nil
	}
	return store.Table{
		Name:     name,
		Header:   append([]string{}, tbl.Header...),
		Rows:     store.CloneRows(tbl.Rows),
		Revision: tbl.Revision,
	}, nil
}

// Write replaces the named table if its revision equals expect.
func (s *Store) Write(ctx context.Context, name string, header []string, rows [][]string, expect string) (string, error) {
	if err := s.before(ctx, OpWrite, name); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := store.EmptyRevision
	if tbl, ok := s.tables[name]; ok {
		current = tbl.Revision
	}
	if current != expect {
		return "", fmt.Errorf("write %s: %w", name, store.ErrRevisionMismatch)
	}

	revision := store.Fingerprint(header, rows)
	s.tables[name] = store.Table{
		Name:     name,
		Header:   append([]string{}, header...),
		Rows:     store.CloneRows(rows),
		Revision: revision,
	}
	return revision, nil
}
