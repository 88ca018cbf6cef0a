package attendance

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Aliases used by the original spreadsheets. Keys are already cleaned.
var (
	statusAliases = map[string]Status{
		"Active":      StatusActive,
		"LongAbsent":  StatusLongAbsent,
		"Transferred": StatusTransferred,
		"출석중":         StatusActive,
		"장기 미결석":      StatusLongAbsent,
		"장기미결석":       StatusLongAbsent,
		"전출":          StatusTransferred,
	}

	presenceAliases = map[string]Presence{
		"Present": Present,
		"Absent":  Absent,
		"출석":      Present,
		"불참":      Absent,
	}

	reasonAliases = map[string]Reason{
		"Work":        ReasonWork,
		"Health":      ReasonHealth,
		"OtherChurch": ReasonOtherChurch,
		"Unconfirmed": ReasonUnconfirmed,
		"-":           NoReason,
		"근무":          ReasonWork,
		"건강":          ReasonHealth,
		"타교회":         ReasonOtherChurch,
		"미확인":         ReasonUnconfirmed,
	}
)

// CleanCell normalizes a raw cell value read from a table.
func CleanCell(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	switch s {
	case "nan", "NaN", "None", "null":
		return ""
	}
	if head, ok := strings.CutSuffix(s, ".0"); ok && head != "" && isDigits(head) {
		return head
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseStatus accepts the canonical value or a Korean alias.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[CleanCell(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ParsePresence accepts the canonical value or a Korean alias.
func ParsePresence(s string) (Presence, error) {
	if p, ok := presenceAliases[CleanCell(s)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown presence %q", s)
}

// ParseReason accepts the canonical value, "-", or a Korean alias.
// An empty string parses as NoReason.
func ParseReason(s string) (Reason, error) {
	c := CleanCell(s)
	if c == "" {
		return NoReason, nil
	}
	if r, ok := reasonAliases[c]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown absence reason %q", s)
}

// CheckPairing enforces that reason is "-" exactly when presence is Present.
func CheckPairing(p Presence, r Reason) error {
	switch p {
	case Present:
		if r != NoReason {
			return fmt.Errorf("present member must have reason %q, got %q", NoReason, r)
		}
	case Absent:
		if !r.IsAbsenceReason() {
			return fmt.Errorf("absent member needs a reason (one of %v), got %q", AbsenceReasons, r)
		}
	default:
		return fmt.Errorf("unknown presence %q", p)
	}
	return nil
}

// IsAttendanceDay reports whether t falls on the designated weekday.
func IsAttendanceDay(t time.Time, day time.Weekday) bool {
	return t.Weekday() == day
}

// NextAttendanceDay returns the date of now if it is the designated weekday,
// otherwise the next such date. The result is a UTC midnight date.
func NextAttendanceDay(now time.Time, day time.Weekday) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ahead := (int(day) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, ahead)
}

// ParseWeekday parses an English weekday name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == want {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
