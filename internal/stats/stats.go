// Package stats summarizes recorded attendance per date.
//
// It only reads the roster and ledger tables; nothing here writes.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/roster"
	"github.com/roach88/rollcall/internal/store"
)

// Report errors. Any other error from a Reader means a table could not be
// loaded.
var (
	ErrNoAttendance = errors.New("no attendance recorded")
	ErrInvalidDate  = errors.New("invalid report date")
)

// Absentee is one absent member and the reason given.
type Absentee struct {
	Name   string            `json:"name"`
	Reason attendance.Reason `json:"absence_reason"`
}

// GroupReport is the attendance of one group on the report date.
// A group is Submitted when any record for it exists on that date.
type GroupReport struct {
	Group     string     `json:"group"`
	Submitted bool       `json:"submitted"`
	Present   int        `json:"present"`
	Absent    int        `json:"absent"`
	Absentees []Absentee `json:"absentees"`
}

// Report summarizes one (year, date).
type Report struct {
	Year           string        `json:"year"`
	Date           string        `json:"date"`
	TotalPresent   int           `json:"total_present"`
	TotalAbsent    int           `json:"total_absent"`
	ReportedGroups int           `json:"reported_groups"`
	TotalGroups    int           `json:"total_groups"`
	Groups         []GroupReport `json:"groups"`
}

// Compute builds the report for (year, date).
//
// Groups are the roster's groups for year. Records of a group missing from
// the roster still count toward the totals and ReportedGroups.
func Compute(members []attendance.Member, records []attendance.Record, year, date string) Report {
	rep := Report{Year: year, Date: date, Groups: []GroupReport{}}

	groups := roster.Groups(members, year)
	rep.TotalGroups = len(groups)
	byGroup := make(map[string]*GroupReport, len(groups))
	for _, g := range groups {
		rep.Groups = append(rep.Groups, GroupReport{Group: g, Absentees: []Absentee{}})
	}
	for i := range rep.Groups {
		byGroup[rep.Groups[i].Group] = &rep.Groups[i]
	}

	reported := make(map[string]bool)
	for _, r := range records {
		if r.Year != year || r.Date.Format(attendance.DateLayout) != date {
			continue
		}
		reported[r.Group] = true
		gr := byGroup[r.Group]
		if gr != nil {
			gr.Submitted = true
		}

		switch r.Presence {
		case attendance.Present:
			rep.TotalPresent++
			if gr != nil {
				gr.Present++
			}
		case attendance.Absent:
			rep.TotalAbsent++
			if gr != nil {
				gr.Absent++
				gr.Absentees = append(gr.Absentees, Absentee{Name: r.Name, Reason: r.Reason})
			}
		}
	}
	rep.ReportedGroups = len(reported)
	return rep
}

// Dates returns the distinct recorded dates of year, most recent first.
func Dates(records []attendance.Record, year string) []string {
	seen := make(map[string]bool)
	dates := make([]string, 0)
	for _, r := range records {
		if r.Year != year {
			continue
		}
		d := r.Date.Format(attendance.DateLayout)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Reader loads the two tables for reporting.
type Reader struct {
	tables      store.TableStore
	rosterTable string
	ledgerTable string
}

// NewReader creates a Reader over the named tables.
func NewReader(tables store.TableStore, rosterTable, ledgerTable string) *Reader {
	return &Reader{tables: tables, rosterTable: rosterTable, ledgerTable: ledgerTable}
}

// Load reads and decodes the roster and ledger concurrently.
func (r *Reader) Load(ctx context.Context) ([]attendance.Member, []attendance.Record, error) {
	var (
		members []attendance.Member
		records []attendance.Record
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tbl, err := r.tables.Read(ctx, r.rosterTable)
		if err != nil {
			return err
		}
		members, err = attendance.DecodeRoster(tbl.Header, tbl.Rows)
		return err
	})
	g.Go(func() error {
		tbl, err := r.tables.Read(ctx, r.ledgerTable)
		if err != nil {
			return err
		}
		records, err = attendance.DecodeLedger(tbl.Header, tbl.Rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load tables: %w", err)
	}
	return members, records, nil
}

// Report loads the tables and computes the report for (year, date).
// An empty date selects the most recent recorded date of year.
func (r *Reader) Report(ctx context.Context, year, date string) (Report, error) {
	members, records, err := r.Load(ctx)
	if err != nil {
		return Report{}, err
	}
	year = attendance.CleanCell(year)
	if date == "" {
		dates := Dates(records, year)
		if len(dates) == 0 {
			return Report{}, fmt.Errorf("%w for %s", ErrNoAttendance, year)
		}
		date = dates[0]
	} else if _, err := attendance.ParseDate(date); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return Compute(members, records, year, date), nil
}

// Dates loads the ledger and returns the recorded dates of year.
func (r *Reader) Dates(ctx context.Context, year string) ([]string, error) {
	_, records, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Dates(records, attendance.CleanCell(year)), nil
}
