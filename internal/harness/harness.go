package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/store/memstore"
	"github.com/roach88/rollcall/internal/testutil"
)

// errInjected is returned by store operations a step's fault applies to.
var errInjected = errors.New("injected store fault")

// Harness runs one scenario against a fresh in-memory store.
type Harness struct {
	store  *memstore.Store
	engine *engine.Engine
	tables map[string]string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh memstore for isolation. Session ids are
// fixed and retries wait a millisecond, so runs are reproducible.
//
// Execution flow:
//  1. Seed the roster and ledger tables
//  2. Run each step, injecting its fault or rendezvous through a store hook
//  3. Compare each submission's outcome with the step's expectation
//  4. Capture the final tables and evaluate the assertions
//
// The returned error is reserved for scenarios that cannot be executed;
// failed expectations are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		want := step.Expect
		if want == "" {
			want = OutcomeOK
		}

		var events []TraceEvent
		var errs []error
		if step.Submit != nil {
			if step.Fail != nil {
				h.store.SetHook(h.fault(step.Fail))
			}
			ev, err := h.submit(ctx, i+1, *step.Submit)
			events, errs = []TraceEvent{ev}, []error{err}
		} else {
			h.store.SetHook(testutil.Rendezvous(h.tables[TableLedger], len(step.Concurrent)))
			events, errs = h.submitConcurrently(ctx, i+1, step.Concurrent)
		}
		h.store.SetHook(nil)

		for j, ev := range events {
			result.Trace = append(result.Trace, ev)
			if ev.Outcome != want {
				msg := fmt.Sprintf("step %d (%s/%s@%s): expected %s, got %s",
					ev.Step, ev.Year, ev.Group, ev.Date, want, ev.Outcome)
				if errs[j] != nil {
					msg += ": " + errs[j].Error()
				}
				result.AddError(msg)
			}
		}
	}

	if result.Roster, err = h.rows(ctx, TableRoster); err != nil {
		return nil, err
	}
	if result.Ledger, err = h.rows(ctx, TableLedger); err != nil {
		return nil, err
	}

	for _, a := range scenario.Assertions {
		if err := h.check(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	st := memstore.New()
	tables := map[string]string{
		TableRoster: engine.DefaultRosterTable,
		TableLedger: engine.DefaultLedgerTable,
	}

	if err := seed(st, tables[TableRoster], attendance.RosterHeader, s.Roster); err != nil {
		return nil, fmt.Errorf("seed roster: %w", err)
	}
	if len(s.Ledger) > 0 {
		if err := seed(st, tables[TableLedger], attendance.LedgerHeader, s.Ledger); err != nil {
			return nil, fmt.Errorf("seed ledger: %w", err)
		}
	}

	day := engine.DefaultAttendanceDay
	if s.AttendanceDay != "" {
		d, err := attendance.ParseWeekday(s.AttendanceDay)
		if err != nil {
			return nil, err
		}
		day = d
	}
	attempts := engine.DefaultMaxAttempts
	if s.MaxAttempts > 0 {
		attempts = s.MaxAttempts
	}

	eng := engine.New(st,
		engine.WithAttendanceDay(day),
		engine.WithMaxAttempts(attempts),
		engine.WithRetryDelay(time.Millisecond),
		engine.WithStoreTimeout(5*time.Second),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithSessionGenerator(engine.NewFixedGenerator(sessionIDs(s)...)),
	)
	return &Harness{store: st, engine: eng, tables: tables}, nil
}

// seed stores rows verbatim under header. Unknown columns are rejected so
// typos in scenario files do not silently become blank cells.
func seed(st *memstore.Store, table string, header []string, rows []Row) error {
	known := make(map[string]bool, len(header))
	for _, col := range header {
		known[col] = true
	}

	cells := make([][]string, 0, len(rows))
	for i, row := range rows {
		for col := range row {
			if !known[col] {
				return fmt.Errorf("row %d: unknown column %q", i+1, col)
			}
		}
		r := make([]string, len(header))
		for j, col := range header {
			r[j] = row[col]
		}
		cells = append(cells, r)
	}
	st.Seed(table, header, cells)
	return nil
}

func sessionIDs(s *Scenario) []string {
	var ids []string
	for _, step := range s.Steps {
		n := len(step.Concurrent)
		if step.Submit != nil {
			n = 1
		}
		for range n {
			ids = append(ids, fmt.Sprintf("session-%d", len(ids)+1))
		}
	}
	return ids
}

func (h *Harness) fault(f *Fault) memstore.Hook {
	op := memstore.OpRead
	if f.Op == "write" {
		op = memstore.OpWrite
	}
	if f.Times == 0 {
		return testutil.FailOn(op, h.tables[f.Table], errInjected)
	}
	return testutil.FailFirst(op, h.tables[f.Table], f.Times, errInjected)
}

func (h *Harness) submit(ctx context.Context, step int, sub Submission) (TraceEvent, error) {
	ev := TraceEvent{Step: step, Year: sub.Year, Group: sub.Group, Date: sub.Date}

	// Dates were checked when the scenario was loaded.
	date, _ := attendance.ParseDate(sub.Date)
	receipt, err := h.engine.Submit(ctx, sub.Year, sub.Group, date, sub.Entries)
	if err != nil {
		ev.Outcome = outcome(err)
		return ev, err
	}

	ev.Outcome = OutcomeOK
	ev.Year, ev.Group = receipt.Year, receipt.Group
	ev.Records = len(receipt.Records)
	ev.StatusChanges = receipt.StatusChanges
	ev.LedgerWritten = receipt.LedgerWritten
	ev.RosterWritten = receipt.RosterWritten
	return ev, nil
}

// submitConcurrently runs subs in parallel. The caller's rendezvous hook
// holds their ledger writes until all have read the same snapshot.
func (h *Harness) submitConcurrently(ctx context.Context, step int, subs []Submission) ([]TraceEvent, []error) {
	events := make([]TraceEvent, len(subs))
	errs := make([]error, len(subs))

	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events[i], errs[i] = h.submit(ctx, step, sub)
		}()
	}
	wg.Wait()

	idx := make([]int, len(subs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return events[idx[a]].Group < events[idx[b]].Group })

	sortedEvents := make([]TraceEvent, len(subs))
	sortedErrs := make([]error, len(subs))
	for i, j := range idx {
		sortedEvents[i], sortedErrs[i] = events[j], errs[j]
	}
	return sortedEvents, sortedErrs
}

func outcome(err error) string {
	var e *engine.Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return "ERROR"
}

// rows reads a table back as column-keyed rows.
func (h *Harness) rows(ctx context.Context, which string) ([]Row, error) {
	tbl, err := h.store.Read(ctx, h.tables[which])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", which, err)
	}
	out := make([]Row, 0, len(tbl.Rows))
	for _, cells := range tbl.Rows {
		row := make(Row, len(tbl.Header))
		for i, col := range tbl.Header {
			if i < len(cells) {
				row[col] = cells[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}
