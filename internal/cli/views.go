package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/stats"
)

// Views are the data passed to OutputFormatter.Success. They marshal as
// their underlying values and render as tables in text mode.

// table renders rows with two spaces between columns.
func table(header string, rows []string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	for _, r := range rows {
		fmt.Fprintln(w, r)
	}
	_ = w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

type memberList []attendance.Member

func (l memberList) String() string {
	if len(l) == 0 {
		return "No members."
	}
	rows := make([]string, 0, len(l))
	for _, m := range l {
		rows = append(rows, fmt.Sprintf("%s\t%s\t%s", m.Name, m.Role, m.Status))
	}
	return table("NAME\tROLE\tSTATUS", rows)
}

type lines []string

func (l lines) String() string {
	if len(l) == 0 {
		return "(none)"
	}
	return strings.Join(l, "\n")
}

type receiptView struct {
	engine.Receipt
}

func (v receiptView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Recorded %d entries for %s/%s on %s (session %s)\n",
		len(v.Records), v.Year, v.Group, v.Date, v.Session)
	fmt.Fprintf(&b, "ledger: %s, roster: %s", writtenLabel(v.LedgerWritten), writtenLabel(v.RosterWritten))
	if len(v.StatusChanges) > 0 {
		rows := make([]string, 0, len(v.StatusChanges))
		for _, c := range v.StatusChanges {
			rows = append(rows, fmt.Sprintf("%s\t%s\t%s", c.Name, c.From, c.To))
		}
		b.WriteString("\n\n")
		b.WriteString(table("NAME\tFROM\tTO", rows))
	}
	return b.String()
}

func writtenLabel(written bool) string {
	if written {
		return "written"
	}
	return "unchanged"
}

type reportView struct {
	stats.Report
}

func (v reportView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s: %d present, %d absent, %d/%d groups reported\n\n",
		v.Year, v.Date, v.TotalPresent, v.TotalAbsent, v.ReportedGroups, v.TotalGroups)

	rows := make([]string, 0, len(v.Groups))
	for _, g := range v.Groups {
		submitted := "no"
		if g.Submitted {
			submitted = "yes"
		}
		absentees := "-"
		if len(g.Absentees) > 0 {
			parts := make([]string, 0, len(g.Absentees))
			for _, a := range g.Absentees {
				parts = append(parts, fmt.Sprintf("%s (%s)", a.Name, a.Reason))
			}
			absentees = strings.Join(parts, ", ")
		}
		rows = append(rows, fmt.Sprintf("%s\t%s\t%d\t%d\t%s", g.Group, submitted, g.Present, g.Absent, absentees))
	}
	b.WriteString(table("GROUP\tSUBMITTED\tPRESENT\tABSENT\tABSENTEES", rows))
	return b.String()
}

// importResult describes a roster import.
type importResult struct {
	File     string `json:"file"`
	Members  int    `json:"members"`
	Written  bool   `json:"written"`
	Revision string `json:"revision"`
}

func (r importResult) String() string {
	if !r.Written {
		return fmt.Sprintf("✓ Roster unchanged (%d members from %s)", r.Members, r.File)
	}
	return fmt.Sprintf("✓ Imported %d members from %s", r.Members, r.File)
}

// ValidationResult holds the result of validating a batch file.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	File    string   `json:"file"`
	Year    string   `json:"year,omitempty"`
	Group   string   `json:"group,omitempty"`
	Date    string   `json:"date,omitempty"`
	Entries int      `json:"entries"`
	Errors  []string `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return fmt.Sprintf("✓ %s: %d entries valid for %s/%s on %s", r.File, r.Entries, r.Year, r.Group, r.Date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s: validation failed\n", r.File)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  %s", e)
	}
	return b.String()
}
