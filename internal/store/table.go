package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// ErrRevisionMismatch is returned by Write when the stored table changed
// since the revision the caller read.
var ErrRevisionMismatch = errors.New("table revision mismatch")

// DomainTable prefixes table fingerprints. The version suffix allows the
// fingerprint algorithm to change without colliding with old revisions.
const DomainTable = "rollcall/table/v1"

// EmptyRevision is the revision of a table that has never been written.
var EmptyRevision = Fingerprint(nil, nil)

// Table is a full snapshot of one named table.
type Table struct {
	Name     string
	Header   []string
	Rows     [][]string
	Revision string
}

// TableStore is the whole-table storage primitive the engine builds on.
//
// Implementations must make Write atomic with respect to the revision check:
// either the stored revision equals expect and the table is fully replaced,
// or ErrRevisionMismatch is returned and the table is left untouched.
type TableStore interface {
	// Read returns the current content of the named table.
	// A missing table reads as empty with EmptyRevision.
	Read(ctx context.Context, name string) (Table, error)

	// Write replaces the named table if its revision still equals expect.
	// Returns the new revision.
	Write(ctx context.Context, name string, header []string, rows [][]string, expect string) (string, error)
}

// Fingerprint computes the revision of a table's content.
// Format: hex(SHA256(domain + 0x00 + canonical JSON of {header, rows})).
func Fingerprint(header []string, rows [][]string) string {
	if header == nil {
		header = []string{}
	}
	if rows == nil {
		rows = [][]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding []string and [][]string cannot fail.
	_ = enc.Encode(struct {
		Header []string   `json:"header"`
		Rows   [][]string `json:"rows"`
	}{header, rows})

	h := sha256.New()
	h.Write([]byte(DomainTable))
	h.Write([]byte{0x00})
	h.Write(bytes.TrimSpace(buf.Bytes()))
	return hex.EncodeToString(h.Sum(nil))
}

// CloneRows deep-copies rows so callers cannot alias stored state.
func CloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
