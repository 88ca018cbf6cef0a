package engine

import "github.com/roach88/rollcall/internal/attendance"

// Merge appends one candidate record per batch entry after ledger and
// collapses duplicate (date, name) keys, keeping the last occurrence.
//
// A kept record sits where its last occurrence was, so rows untouched by the
// batch keep their relative order and the batch's rows end up last, in entry
// order. Merge is idempotent: Merge(b, Merge(b, l)) equals Merge(b, l).
func Merge(b attendance.Batch, ledger []attendance.Record) []attendance.Record {
	all := make([]attendance.Record, 0, len(ledger)+len(b.Entries))
	all = append(all, ledger...)
	for _, e := range b.Entries {
		all = append(all, b.Record(e))
	}
	return dedupKeepLast(all)
}

func dedupKeepLast(records []attendance.Record) []attendance.Record {
	seen := make(map[attendance.RecordKey]bool, len(records))
	kept := make([]attendance.Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		k := records[i].Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, records[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

// StatusChange records one roster status transition made by a submission.
type StatusChange struct {
	Name string            `json:"name"`
	From attendance.Status `json:"from"`
	To   attendance.Status `json:"to"`
}

// ApplyStatus sets each batch entry's member to its new status.
//
// Presence plays no part. Members outside the batch are untouched. Only
// actual transitions are reported.
func ApplyStatus(b attendance.Batch, members []attendance.Member) ([]attendance.Member, []StatusChange) {
	want := make(map[string]attendance.Status, len(b.Entries))
	for _, e := range b.Entries {
		want[e.Name] = e.Status
	}

	next := make([]attendance.Member, len(members))
	copy(next, members)

	var changes []StatusChange
	for i, m := range next {
		if m.Year != b.Year || m.Group != b.Group {
			continue
		}
		status, ok := want[m.Name]
		if !ok || m.Status == status {
			continue
		}
		changes = append(changes, StatusChange{Name: m.Name, From: m.Status, To: status})
		next[i].Status = status
	}
	return next, changes
}
