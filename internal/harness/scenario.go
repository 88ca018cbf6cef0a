package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/engine"
)

// Scenario defines a reconciliation scenario.
// It seeds the roster and ledger tables, runs a sequence of submissions
// against them and asserts on the outcomes and the final tables.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// AttendanceDay overrides the engine's attendance weekday.
	AttendanceDay string `yaml:"attendance_day,omitempty"`

	// MaxAttempts overrides the engine's optimistic attempt bound.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// Roster holds the initial roster rows, keyed by column name.
	// Values are stored as written, so spreadsheet aliases survive until
	// the first roster rewrite.
	Roster []Row `yaml:"roster"`

	// Ledger holds the initial ledger rows. Optional.
	Ledger []Row `yaml:"ledger,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final tables and store traffic.
	Assertions []Assertion `yaml:"assertions"`
}

// Row is one table row keyed by column name.
type Row map[string]string

// Submission is one leader's batch.
type Submission struct {
	Year    string             `yaml:"year"`
	Group   string             `yaml:"group"`
	Date    string             `yaml:"date"`
	Entries []attendance.Entry `yaml:"entries"`
}

// Step is either one submission or a set of submissions committed
// concurrently from the same snapshot.
type Step struct {
	Submit     *Submission  `yaml:"submit,omitempty"`
	Concurrent []Submission `yaml:"concurrent,omitempty"`

	// Expect is the outcome every submission of the step must have:
	// "ok" (the default) or an engine error code such as "VALIDATION".
	Expect string `yaml:"expect,omitempty"`

	// Fail injects a store fault for the duration of the step.
	Fail *Fault `yaml:"fail,omitempty"`
}

// Fault makes store operations on one table fail.
type Fault struct {
	// Op is "read" or "write".
	Op string `yaml:"op"`

	// Table is "roster" or "ledger".
	Table string `yaml:"table"`

	// Times limits the fault to the first n operations. Zero fails all.
	Times int `yaml:"times,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "row_exists": a row of Table matches Where and Expect
	// - "row_absent": no row of Table matches Where
	// - "row_count": exactly Count rows of Table match Where
	// - "write_count": Table was written exactly Count times
	Type string `yaml:"type"`

	// Table is "roster" or "ledger".
	Table string `yaml:"table"`

	// Where selects rows. All fields must match exactly. Empty matches all.
	Where Row `yaml:"where,omitempty"`

	// Expect contains expected field values (subset match, row_exists).
	Expect Row `yaml:"expect,omitempty"`

	// Count is the expected number of rows or writes.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRowExists  = "row_exists"
	AssertRowAbsent  = "row_absent"
	AssertRowCount   = "row_count"
	AssertWriteCount = "write_count"
)

// Table selectors used by faults and assertions.
const (
	TableRoster = "roster"
	TableLedger = "ledger"
)

// OutcomeOK is the expected outcome of a successful submission.
const OutcomeOK = "ok"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.AttendanceDay != "" {
		if _, err := attendance.ParseWeekday(s.AttendanceDay); err != nil {
			return fmt.Errorf("attendance_day: %w", err)
		}
	}
	if s.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch {
	case st.Submit == nil && len(st.Concurrent) == 0:
		return fmt.Errorf("steps[%d]: submit or concurrent is required", index)
	case st.Submit != nil && len(st.Concurrent) > 0:
		return fmt.Errorf("steps[%d]: submit and concurrent are mutually exclusive", index)
	case len(st.Concurrent) == 1:
		return fmt.Errorf("steps[%d]: concurrent needs at least two submissions", index)
	case len(st.Concurrent) > 0 && st.Fail != nil:
		return fmt.Errorf("steps[%d]: fail cannot be combined with concurrent", index)
	}

	subs := st.Concurrent
	if st.Submit != nil {
		subs = []Submission{*st.Submit}
	}
	for _, sub := range subs {
		if _, err := attendance.ParseDate(sub.Date); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}

	switch st.Expect {
	case "", OutcomeOK,
		string(engine.ErrCodeValidation), string(engine.ErrCodeConflict),
		string(engine.ErrCodeStore), string(engine.ErrCodePartialCommit):
	default:
		return fmt.Errorf("steps[%d]: unknown expected outcome %q", index, st.Expect)
	}

	if f := st.Fail; f != nil {
		if f.Op != "read" && f.Op != "write" {
			return fmt.Errorf("steps[%d].fail: op must be read or write, got %q", index, f.Op)
		}
		if err := checkTable(f.Table); err != nil {
			return fmt.Errorf("steps[%d].fail: %w", index, err)
		}
		if f.Times < 0 {
			return fmt.Errorf("steps[%d].fail: times must be non-negative", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if err := checkTable(a.Table); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}

	switch a.Type {
	case AssertRowExists:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for row_exists", index)
		}
	case AssertRowAbsent:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for row_absent", index)
		}
	case AssertRowCount, AssertWriteCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func checkTable(name string) error {
	if name != TableRoster && name != TableLedger {
		return fmt.Errorf("table must be %s or %s, got %q", TableRoster, TableLedger, name)
	}
	return nil
}
