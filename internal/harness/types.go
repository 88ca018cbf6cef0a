package harness

import "github.com/roach88/rollcall/internal/engine"

// TraceEvent is the outcome of one submission.
//
// Session ids and revisions are left out so traces compare equal across
// runs.
type TraceEvent struct {
	Step          int                   `json:"step"`
	Year          string                `json:"year"`
	Group         string                `json:"group"`
	Date          string                `json:"date"`
	Outcome       string                `json:"outcome"`
	Records       int                   `json:"records,omitempty"`
	StatusChanges []engine.StatusChange `json:"status_changes,omitempty"`
	LedgerWritten bool                  `json:"ledger_written,omitempty"`
	RosterWritten bool                  `json:"roster_written,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step had its expected outcome and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per submission, in step order. Events of a
	// concurrent step are ordered by group.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Ledger and Roster are the final tables, as stored.
	Ledger []Row `json:"ledger"`
	Roster []Row `json:"roster"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Ledger: []Row{},
		Roster: []Row{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
