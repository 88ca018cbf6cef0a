package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Table    string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s on %s\n", e.Type, e.Table)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func (h *Harness) check(result *Result, a Assertion) error {
	rows := result.Roster
	if a.Table == TableLedger {
		rows = result.Ledger
	}

	switch a.Type {
	case AssertRowExists:
		return assertRowExists(rows, a)
	case AssertRowAbsent:
		return assertRowAbsent(rows, a)
	case AssertRowCount:
		return assertRowCount(rows, a)
	case AssertWriteCount:
		return assertWriteCount(h.store.Writes(h.tables[a.Table]), a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertRowExists checks that some row matches Where and carries the
// Expect values. Expect is a subset match.
func assertRowExists(rows []Row, a Assertion) error {
	matched := filterRows(rows, a.Where)
	if len(matched) == 0 {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: fmt.Sprintf("a row matching %v", a.Where),
			Actual:   "no matching row",
		}
	}
	for _, row := range matched {
		if matchRow(row, a.Expect) {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Table:    a.Table,
		Expected: fmt.Sprintf("row matching %v with %v", a.Where, a.Expect),
		Actual:   fmt.Sprintf("%v", matched),
	}
}

func assertRowAbsent(rows []Row, a Assertion) error {
	if matched := filterRows(rows, a.Where); len(matched) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: fmt.Sprintf("no row matching %v", a.Where),
			Actual:   fmt.Sprintf("%v", matched),
		}
	}
	return nil
}

func assertRowCount(rows []Row, a Assertion) error {
	if n := len(filterRows(rows, a.Where)); n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: fmt.Sprintf("%d rows matching %v", a.Count, a.Where),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// assertWriteCount counts attempted writes, including rejected ones.
func assertWriteCount(writes int, a Assertion) error {
	if writes != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: fmt.Sprintf("%d writes", a.Count),
			Actual:   fmt.Sprintf("%d writes", writes),
		}
	}
	return nil
}

func filterRows(rows []Row, where Row) []Row {
	var out []Row
	for _, row := range rows {
		if matchRow(row, where) {
			out = append(out, row)
		}
	}
	return out
}

// matchRow reports whether row has every value in want.
func matchRow(row, want Row) bool {
	for col, v := range want {
		if row[col] != v {
			return false
		}
	}
	return true
}
