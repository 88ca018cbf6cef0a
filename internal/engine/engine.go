package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/roster"
	"github.com/roach88/rollcall/internal/store"
)

// Defaults for Engine options.
const (
	DefaultRosterTable   = "roster"
	DefaultLedgerTable   = "attendance"
	DefaultMaxAttempts   = 3
	DefaultRetryDelay    = 200 * time.Millisecond
	DefaultStoreTimeout  = 10 * time.Second
	DefaultAttendanceDay = time.Saturday
)

// SessionGenerator generates submission session ids for log correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type SessionGenerator interface {
	Generate() string
}

// Engine reconciles submission batches into the ledger and roster tables.
//
// Thread-safety: an Engine is immutable after New and safe for concurrent
// use. Concurrent submissions, in this process or others sharing the store,
// are serialized per table by the store's conditional write.
type Engine struct {
	tables       store.TableStore
	rosterTable  string
	ledgerTable  string
	day          time.Weekday
	maxAttempts  int
	retryDelay   time.Duration
	storeTimeout time.Duration
	logger       *slog.Logger
	sessions     SessionGenerator
	clock        Clock
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithRosterTable sets the roster table name. Default: "roster".
func WithRosterTable(name string) EngineOption {
	return func(e *Engine) { e.rosterTable = name }
}

// WithLedgerTable sets the ledger table name. Default: "attendance".
func WithLedgerTable(name string) EngineOption {
	return func(e *Engine) { e.ledgerTable = name }
}

// WithAttendanceDay sets the weekday attendance is recorded on.
// Default: Saturday.
func WithAttendanceDay(day time.Weekday) EngineOption {
	return func(e *Engine) { e.day = day }
}

// WithMaxAttempts bounds the read-merge-write attempts per table.
// Default: 3. Values below 1 are treated as 1.
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.maxAttempts = n
	}
}

// WithRetryDelay sets the first backoff interval between attempts.
// Default: 200ms; tests use a millisecond.
func WithRetryDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.retryDelay = d }
}

// WithStoreTimeout bounds each individual store call. Default: 10s.
func WithStoreTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.storeTimeout = d }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithSessionGenerator sets the session id source. Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) EngineOption {
	return func(e *Engine) { e.sessions = g }
}

// WithClock sets the clock used for default dates. Default: SystemClock.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine over the given table store.
func New(tables store.TableStore, opts ...EngineOption) *Engine {
	e := &Engine{
		tables:       tables,
		rosterTable:  DefaultRosterTable,
		ledgerTable:  DefaultLedgerTable,
		day:          DefaultAttendanceDay,
		maxAttempts:  DefaultMaxAttempts,
		retryDelay:   DefaultRetryDelay,
		storeTimeout: DefaultStoreTimeout,
		logger:       slog.Default(),
		sessions:     UUIDv7Generator{},
		clock:        SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AttendanceDay returns the designated weekday.
func (e *Engine) AttendanceDay() time.Weekday {
	return e.day
}

// DefaultDate returns today if it is the attendance day, otherwise the next one.
func (e *Engine) DefaultDate() time.Time {
	return attendance.NextAttendanceDay(e.clock.Now(), e.day)
}

// Receipt describes a committed submission.
type Receipt struct {
	Session        string              `json:"session"`
	Year           string              `json:"year"`
	Group          string              `json:"group"`
	Date           string              `json:"date"`
	Records        []attendance.Record `json:"records"`
	StatusChanges  []StatusChange      `json:"status_changes"`
	LedgerRevision string              `json:"ledger_revision,omitempty"`
	RosterRevision string              `json:"roster_revision,omitempty"`
	LedgerWritten  bool                `json:"ledger_written"`
	RosterWritten  bool                `json:"roster_written"`
}

// Submit validates a batch and commits it: the ledger first, then the roster.
//
// Each table goes through a bounded read-merge-conditional-write loop, so a
// concurrent writer's rows are merged rather than overwritten. A table whose
// merged content equals what is stored is not written, which makes
// re-submitting an identical batch a no-op and lets a re-submission finish
// a partial commit.
//
// Errors are *Error values: VALIDATION (nothing read beyond the roster,
// nothing written), CONFLICT, STORE, or PARTIAL_COMMIT.
func (e *Engine) Submit(ctx context.Context, year, group string, date time.Time, entries []attendance.Entry) (Receipt, error) {
	b := attendance.Batch{
		Year:    attendance.CleanCell(year),
		Group:   attendance.CleanCell(group),
		Date:    date,
		Entries: entries,
	}

	// No store access until the batch is known to be well formed.
	canonical, err := Validate(b, e.day)
	if err != nil {
		return Receipt{}, err
	}
	b.Entries = canonical
	b.Session = e.sessions.Generate()

	log := e.logger.With(
		"session", b.Session,
		"year", b.Year,
		"group", b.Group,
		"date", b.Date.Format(attendance.DateLayout),
	)
	receipt := Receipt{
		Session:       b.Session,
		Year:          b.Year,
		Group:         b.Group,
		Date:          b.Date.Format(attendance.DateLayout),
		Records:       []attendance.Record{},
		StatusChanges: []StatusChange{},
	}

	if len(b.Entries) == 0 {
		log.Info("empty submission, nothing recorded")
		return receipt, nil
	}

	members, err := e.Members(ctx)
	if err != nil {
		return Receipt{}, err
	}
	if err := CheckMembers(b, members); err != nil {
		log.Debug("submission rejected", "error", err)
		return Receipt{}, err
	}

	ledger, err := e.commit(ctx, log, e.ledgerTable, func(tbl store.Table) ([]string, [][]string, error) {
		records, err := attendance.DecodeLedger(tbl.Header, tbl.Rows)
		if err != nil {
			return nil, nil, err
		}
		header, rows := attendance.EncodeLedger(Merge(b, records))
		return header, rows, nil
	})
	if err != nil {
		log.Error("ledger commit failed", "error", err)
		return Receipt{}, err
	}

	var changes []StatusChange
	rosterRes, err := e.commit(ctx, log, e.rosterTable, func(tbl store.Table) ([]string, [][]string, error) {
		current, err := attendance.DecodeRoster(tbl.Header, tbl.Rows)
		if err != nil {
			return nil, nil, err
		}
		next, ch := ApplyStatus(b, current)
		changes = ch
		header, rows := attendance.EncodeRoster(next)
		return header, rows, nil
	})
	if err != nil {
		log.Error("roster commit failed after ledger commit", "error", err)
		return Receipt{}, newPartialCommitError(e.rosterTable, err)
	}

	for _, entry := range b.Entries {
		receipt.Records = append(receipt.Records, b.Record(entry))
	}
	if changes != nil {
		receipt.StatusChanges = changes
	}
	receipt.LedgerRevision = ledger.revision
	receipt.LedgerWritten = ledger.written
	receipt.RosterRevision = rosterRes.revision
	receipt.RosterWritten = rosterRes.written

	log.Info("submission recorded",
		"records", len(receipt.Records),
		"status_changes", len(receipt.StatusChanges),
		"ledger_written", receipt.LedgerWritten,
		"roster_written", receipt.RosterWritten,
	)
	return receipt, nil
}

// Members reads and decodes the whole roster.
func (e *Engine) Members(ctx context.Context) ([]attendance.Member, error) {
	tbl, err := e.readTable(ctx, e.rosterTable)
	if err != nil {
		return nil, err
	}
	members, err := attendance.DecodeRoster(tbl.Header, tbl.Rows)
	if err != nil {
		return nil, newStoreError(e.rosterTable, err)
	}
	return members, nil
}

// List returns the members of (year, group), ordered by status rank.
func (e *Engine) List(ctx context.Context, year, group string) ([]attendance.Member, error) {
	members, err := e.Members(ctx)
	if err != nil {
		return nil, err
	}
	return roster.List(members, attendance.CleanCell(year), attendance.CleanCell(group)), nil
}

// Years returns the roster's years, most recent first.
func (e *Engine) Years(ctx context.Context) ([]string, error) {
	members, err := e.Members(ctx)
	if err != nil {
		return nil, err
	}
	return roster.Years(members), nil
}

// Groups returns the groups of year in ascending order.
func (e *Engine) Groups(ctx context.Context, year string) ([]string, error) {
	members, err := e.Members(ctx)
	if err != nil {
		return nil, err
	}
	return roster.Groups(members, attendance.CleanCell(year)), nil
}

type commitResult struct {
	revision string
	written  bool
}

// commit runs the optimistic protocol for one table: read a snapshot,
// derive the next content from it, write conditionally on the snapshot's
// revision, and start over on a mismatch or transient failure.
// Errors from next are permanent.
func (e *Engine) commit(ctx context.Context, log *slog.Logger, table string, next func(store.Table) ([]string, [][]string, error)) (commitResult, error) {
	attempts := 0
	op := func() (commitResult, error) {
		attempts++
		snap, err := e.read(ctx, table)
		if err != nil {
			return commitResult{}, err
		}
		header, rows, err := next(snap)
		if err != nil {
			return commitResult{}, backoff.Permanent(err)
		}
		if store.Fingerprint(header, rows) == snap.Revision {
			log.Debug("table unchanged, write skipped", "table", table, "attempt", attempts)
			return commitResult{revision: snap.Revision}, nil
		}
		rev, err := e.write(ctx, table, header, rows, snap.Revision)
		if err != nil {
			return commitResult{}, err
		}
		log.Debug("table written", "table", table, "attempt", attempts, "rows", len(rows))
		return commitResult{revision: rev, written: true}, nil
	}

	res, err := backoff.Retry(ctx, op, e.retryOptions(log, table)...)
	if err != nil {
		if errors.Is(err, store.ErrRevisionMismatch) {
			return commitResult{}, newConflictError(table, attempts, err)
		}
		return commitResult{}, newStoreError(table, err)
	}
	return res, nil
}

// readTable reads a table, retrying transient failures.
func (e *Engine) readTable(ctx context.Context, table string) (store.Table, error) {
	tbl, err := backoff.Retry(ctx, func() (store.Table, error) {
		return e.read(ctx, table)
	}, e.retryOptions(e.logger, table)...)
	if err != nil {
		return store.Table{}, newStoreError(table, err)
	}
	return tbl, nil
}

func (e *Engine) retryOptions(log *slog.Logger, table string) []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryDelay
	b.MaxInterval = 4 * e.retryDelay
	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(e.maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("retrying table operation", "table", table, "backoff", wait, "error", err)
		}),
	}
}

func (e *Engine) read(ctx context.Context, table string) (store.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.tables.Read(ctx, table)
}

func (e *Engine) write(ctx context.Context, table string, header []string, rows [][]string, expect string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.tables.Write(ctx, table, header, rows, expect)
}
