package engine

import (
	"time"

	"github.com/roach88/rollcall/internal/attendance"
)

// Validate checks everything about a batch that needs no store access and
// returns its entries in canonical form.
//
// Checks, in order: the date is the attendance day, every entry has a
// unique non-empty name, presence and reason are known and paired, and
// new_status is a known status. Korean aliases are accepted and canonicalized.
// An empty reason on a Present entry means "-".
func Validate(b attendance.Batch, day time.Weekday) ([]attendance.Entry, error) {
	if b.Year == "" {
		return nil, newValidationError("year", "", "year is required")
	}
	if b.Group == "" {
		return nil, newValidationError("group", "", "group is required")
	}
	if b.Date.IsZero() {
		return nil, newValidationError("date", "", "date is required")
	}
	if !attendance.IsAttendanceDay(b.Date, day) {
		return nil, newValidationError("date", "",
			"%s is a %s; attendance is recorded on %s",
			b.Date.Format(attendance.DateLayout), b.Date.Weekday(), day)
	}

	seen := make(map[string]bool, len(b.Entries))
	out := make([]attendance.Entry, 0, len(b.Entries))
	for i, e := range b.Entries {
		name := attendance.CleanCell(e.Name)
		if name == "" {
			return nil, newValidationError("name", "", "entry %d has no name", i+1)
		}
		if seen[name] {
			return nil, newValidationError("name", name, "member appears more than once in the batch")
		}
		seen[name] = true

		entry, err := canonicalEntry(name, e)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func canonicalEntry(name string, e attendance.Entry) (attendance.Entry, error) {
	presence, err := attendance.ParsePresence(string(e.Presence))
	if err != nil {
		return attendance.Entry{}, newValidationError("presence", name, "%v", err)
	}
	reason, err := attendance.ParseReason(string(e.Reason))
	if err != nil {
		return attendance.Entry{}, newValidationError("absence_reason", name, "%v", err)
	}
	if err := attendance.CheckPairing(presence, reason); err != nil {
		return attendance.Entry{}, newValidationError("absence_reason", name, "%v", err)
	}
	status, err := attendance.ParseStatus(string(e.Status))
	if err != nil {
		return attendance.Entry{}, newValidationError("new_status", name, "%v", err)
	}
	return attendance.Entry{Name: name, Presence: presence, Reason: reason, Status: status}, nil
}

// CheckMembers rejects entries whose name is not in the roster under the
// batch's (year, group).
func CheckMembers(b attendance.Batch, members []attendance.Member) error {
	known := make(map[attendance.MemberKey]bool, len(members))
	for _, m := range members {
		known[m.Key()] = true
	}
	for _, e := range b.Entries {
		key := attendance.MemberKey{Year: b.Year, Group: b.Group, Name: e.Name}
		if !known[key] {
			return newValidationError("name", e.Name, "not a member of group %s in %s", b.Group, b.Year)
		}
	}
	return nil
}
