package harness

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rollcall/internal/attendance"
)

// Snapshot captures the trace and final tables of a scenario execution.
//
// Ledger rows are sorted by date, group and name: concurrent steps commit
// in an arbitrary order, and only the row set is deterministic.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Roster       []Row        `json:"roster"`
	Ledger       []Row        `json:"ledger"`
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(name string, result *Result) Snapshot {
	ledger := append([]Row(nil), result.Ledger...)
	sort.SliceStable(ledger, func(i, j int) bool {
		a, b := ledger[i], ledger[j]
		if a[attendance.ColDate] != b[attendance.ColDate] {
			return a[attendance.ColDate] < b[attendance.ColDate]
		}
		if a[attendance.ColGroup] != b[attendance.ColGroup] {
			return a[attendance.ColGroup] < b[attendance.ColGroup]
		}
		return a[attendance.ColName] < b[attendance.ColName]
	})
	return Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Roster:       result.Roster,
		Ledger:       ledger,
	}
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// Row keys are sorted by encoding/json.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be executed. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
