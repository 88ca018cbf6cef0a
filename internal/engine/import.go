package engine

import (
	"context"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/store"
)

// ImportResult describes a roster import.
type ImportResult struct {
	Members  int    `json:"members"`
	Revision string `json:"revision"`
	Written  bool   `json:"written"`
}

// ImportRoster replaces the whole roster with members.
//
// Unlike Submit nothing is merged: the stored roster is discarded. The
// write still goes through the conditional protocol, so an import racing a
// submission's roster commit makes one of them retry instead of losing it.
// Members must be unique per (year, group, name).
func (e *Engine) ImportRoster(ctx context.Context, members []attendance.Member) (ImportResult, error) {
	seen := make(map[attendance.MemberKey]bool, len(members))
	for i, m := range members {
		if m.Year == "" || m.Group == "" || m.Name == "" {
			return ImportResult{}, newValidationError("name", m.Name, "member %d needs a year, group and name", i+1)
		}
		if seen[m.Key()] {
			return ImportResult{}, newValidationError("name", m.Name, "member appears more than once in %s/%s", m.Year, m.Group)
		}
		seen[m.Key()] = true
	}

	log := e.logger.With("session", e.sessions.Generate(), "table", e.rosterTable)
	res, err := e.commit(ctx, log, e.rosterTable, func(store.Table) ([]string, [][]string, error) {
		header, rows := attendance.EncodeRoster(members)
		return header, rows, nil
	})
	if err != nil {
		log.Error("roster import failed", "error", err)
		return ImportResult{}, err
	}

	log.Info("roster imported", "members", len(members), "written", res.written)
	return ImportResult{Members: len(members), Revision: res.revision, Written: res.written}, nil
}
