package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is a member's standing in the roster.
type Status string

const (
	StatusActive      Status = "Active"
	StatusLongAbsent  Status = "LongAbsent"
	StatusTransferred Status = "Transferred"
)

// Presence records whether a member attended on a given date.
type Presence string

const (
	Present Presence = "Present"
	Absent  Presence = "Absent"
)

// Reason explains an absence. NoReason is the only valid value for Present.
type Reason string

const (
	ReasonWork        Reason = "Work"
	ReasonHealth      Reason = "Health"
	ReasonOtherChurch Reason = "OtherChurch"
	ReasonUnconfirmed Reason = "Unconfirmed"
	NoReason          Reason = "-"
)

// AbsenceReasons lists the reasons valid for an Absent record.
var AbsenceReasons = []Reason{ReasonWork, ReasonHealth, ReasonOtherChurch, ReasonUnconfirmed}

// IsAbsenceReason reports whether r is a reason an Absent record may carry.
func (r Reason) IsAbsenceReason() bool {
	switch r {
	case ReasonWork, ReasonHealth, ReasonOtherChurch, ReasonUnconfirmed:
		return true
	}
	return false
}

// DateLayout is the ledger's textual date format.
const DateLayout = "2006-01-02"

// Member is one roster row.
type Member struct {
	Year   string `json:"year"`
	Group  string `json:"group"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Status Status `json:"status"`
}

// MemberKey identifies a member within the roster.
type MemberKey struct {
	Year  string
	Group string
	Name  string
}

// Key returns the member's identity.
func (m Member) Key() MemberKey {
	return MemberKey{Year: m.Year, Group: m.Group, Name: m.Name}
}

// Record is one ledger row.
//
// Group is carried for reporting only; it is not part of the identity.
type Record struct {
	Year     string
	Date     time.Time
	Name     string
	Group    string
	Presence Presence
	Reason   Reason
}

// recordJSON is the wire form of Record, with the date as YYYY-MM-DD like
// every other date in the JSON output.
type recordJSON struct {
	Year     string   `json:"year"`
	Date     string   `json:"date"`
	Name     string   `json:"name"`
	Group    string   `json:"group"`
	Presence Presence `json:"presence"`
	Reason   Reason   `json:"absence_reason"`
}

// MarshalJSON encodes the date with DateLayout.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Year:     r.Year,
		Date:     r.Date.Format(DateLayout),
		Name:     r.Name,
		Group:    r.Group,
		Presence: r.Presence,
		Reason:   r.Reason,
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var v recordJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	date, err := ParseDate(v.Date)
	if err != nil {
		return err
	}
	*r = Record{Year: v.Year, Date: date, Name: v.Name, Group: v.Group, Presence: v.Presence, Reason: v.Reason}
	return nil
}

// RecordKey is the deduplication key of the ledger.
type RecordKey struct {
	Date string
	Name string
}

// Key returns the (date, name) key used for deduplication.
func (r Record) Key() RecordKey {
	return RecordKey{Date: r.Date.Format(DateLayout), Name: r.Name}
}

// Entry is one member's decision inside a submission.
type Entry struct {
	Name     string   `json:"name" yaml:"name"`
	Presence Presence `json:"presence" yaml:"presence"`
	Reason   Reason   `json:"absence_reason,omitempty" yaml:"absence_reason,omitempty"`
	Status   Status   `json:"new_status" yaml:"new_status"`
}

// Batch is the set of decisions from one leader's session.
// It exists only for the duration of one reconciliation.
type Batch struct {
	Year    string
	Group   string
	Date    time.Time
	Session string
	Entries []Entry
}

// Record builds the candidate ledger row for an entry of this batch.
func (b Batch) Record(e Entry) Record {
	return Record{
		Year:     b.Year,
		Date:     b.Date,
		Name:     e.Name,
		Group:    b.Group,
		Presence: e.Presence,
		Reason:   e.Reason,
	}
}

// ParseDate parses a YYYY-MM-DD date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
