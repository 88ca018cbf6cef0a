package attendance

import (
	"errors"
	"fmt"
)

// ErrMalformedRow is returned when a stored row does not satisfy the schema.
var ErrMalformedRow = errors.New("malformed row")

// Canonical column names.
const (
	ColYear          = "year"
	ColGroup         = "group"
	ColName          = "name"
	ColRole          = "role"
	ColStatus        = "status"
	ColDate          = "date"
	ColPresence      = "presence"
	ColAbsenceReason = "absence_reason"
)

// RosterHeader is the header written for the roster table.
var RosterHeader = []string{ColYear, ColGroup, ColName, ColRole, ColStatus}

// LedgerHeader is the header written for the ledger table.
var LedgerHeader = []string{ColYear, ColDate, ColName, ColGroup, ColPresence, ColAbsenceReason}

// headerAliases maps the original spreadsheet headers to canonical names.
var headerAliases = map[string]string{
	"년도":   ColYear,
	"목양반":  ColGroup,
	"이름":   ColName,
	"직분":   ColRole,
	"상태":   ColStatus,
	"날짜":   ColDate,
	"출석여부": ColPresence,
	"불참사유": ColAbsenceReason,
}

// RowError locates a malformed row. Row is 1-based and excludes the header.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{ErrMalformedRow, e.Err}
}

// columns resolves canonical column names to cell indexes.
type columns map[string]int

func indexHeader(header []string, required ...string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedRow, name)
		}
		cols[name] = i
	}
	for _, r := range required {
		if _, ok := cols[r]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedRow, r)
		}
	}
	return cols, nil
}

// get returns the cleaned cell for column, or "" if the column or cell is absent.
func (c columns) get(row []string, column string) string {
	i, ok := c[column]
	if !ok || i >= len(row) {
		return ""
	}
	return CleanCell(row[i])
}

func blank(row []string) bool {
	for _, cell := range row {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// DecodeRoster converts raw roster rows into members.
// Blank rows are skipped. Rows missing year, group or name are malformed, and
// so is a second row for the same (year, group, name).
func DecodeRoster(header []string, rows [][]string) ([]Member, error) {
	if len(header) == 0 && len(rows) == 0 {
		return []Member{}, nil
	}
	cols, err := indexHeader(header, ColYear, ColGroup, ColName, ColStatus)
	if err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	members := make([]Member, 0, len(rows))
	seen := make(map[MemberKey]int, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		m := Member{
			Year:  cols.get(row, ColYear),
			Group: cols.get(row, ColGroup),
			Name:  cols.get(row, ColName),
			Role:  cols.get(row, ColRole),
		}
		for _, c := range []struct{ name, val string }{
			{ColYear, m.Year}, {ColGroup, m.Group}, {ColName, m.Name},
		} {
			if c.val == "" {
				return nil, fmt.Errorf("decode roster: %w", &RowError{Row: i + 1, Column: c.name, Err: errors.New("value is required")})
			}
		}
		if first, ok := seen[m.Key()]; ok {
			return nil, fmt.Errorf("decode roster: %w", &RowError{Row: i + 1, Column: ColName, Err: fmt.Errorf("%s/%s/%s duplicates row %d", m.Year, m.Group, m.Name, first)})
		}
		seen[m.Key()] = i + 1

		raw := cols.get(row, ColStatus)
		if st, err := ParseStatus(raw); err == nil {
			m.Status = st
		} else {
			// Unknown standings are kept as-is and ranked last.
			m.Status = Status(raw)
		}
		members = append(members, m)
	}
	return members, nil
}

// EncodeRoster converts members into the canonical roster header and rows.
func EncodeRoster(members []Member) ([]string, [][]string) {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{m.Year, m.Group, m.Name, m.Role, string(m.Status)})
	}
	return append([]string(nil), RosterHeader...), rows
}

// DecodeLedger converts raw ledger rows into records.
// Duplicated (date, name) keys are allowed here; Merge collapses them.
func DecodeLedger(header []string, rows [][]string) ([]Record, error) {
	if len(header) == 0 && len(rows) == 0 {
		return []Record{}, nil
	}
	cols, err := indexHeader(header, ColYear, ColDate, ColName, ColGroup, ColPresence)
	if err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		rec, err := decodeRecord(cols, row)
		if err != nil {
			err.Row = i + 1
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecord(cols columns, row []string) (Record, *RowError) {
	rec := Record{
		Year:  cols.get(row, ColYear),
		Name:  cols.get(row, ColName),
		Group: cols.get(row, ColGroup),
	}
	if rec.Year == "" {
		return Record{}, &RowError{Column: ColYear, Err: errors.New("value is required")}
	}
	if rec.Name == "" {
		return Record{}, &RowError{Column: ColName, Err: errors.New("value is required")}
	}

	date, err := ParseDate(cols.get(row, ColDate))
	if err != nil {
		return Record{}, &RowError{Column: ColDate, Err: err}
	}
	rec.Date = date

	if rec.Presence, err = ParsePresence(cols.get(row, ColPresence)); err != nil {
		return Record{}, &RowError{Column: ColPresence, Err: err}
	}
	if rec.Reason, err = ParseReason(cols.get(row, ColAbsenceReason)); err != nil {
		return Record{}, &RowError{Column: ColAbsenceReason, Err: err}
	}
	if err := CheckPairing(rec.Presence, rec.Reason); err != nil {
		return Record{}, &RowError{Column: ColAbsenceReason, Err: err}
	}
	return rec, nil
}

// EncodeLedger converts records into the canonical ledger header and rows.
func EncodeLedger(records []Record) ([]string, [][]string) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Year,
			r.Date.Format(DateLayout),
			r.Name,
			r.Group,
			string(r.Presence),
			string(r.Reason),
		})
	}
	return append([]string(nil), LedgerHeader...), rows
}
