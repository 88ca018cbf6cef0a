package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Write replaces the named table if its stored revision equals expect.
//
// The check and the replace run in one immediate transaction, so a concurrent
// writer (another connection or another process) either commits before the
// check, making it fail with ErrRevisionMismatch, or waits for this
// transaction to finish.
//
// Returns the revision of the written content.
func (s *Store) Write(ctx context.Context, name string, header []string, rows [][]string, expect string) (string, error) {
	if header == nil {
		header = []string{}
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("write %s: marshal header: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write %s: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	current := EmptyRevision
	err = tx.QueryRowContext(ctx, `
		SELECT revision FROM sheets WHERE name = ?
	`, name).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("write %s: read revision: %w", name, err)
	}
	if current != expect {
		return "", fmt.Errorf("write %s: %w", name, ErrRevisionMismatch)
	}

	revision := Fingerprint(header, rows)

	// Upsert the sheet first; sheet_rows references it.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheets (name, header, revision)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			header = excluded.header,
			revision = excluded.revision
	`, name, string(headerJSON), revision)
	if err != nil {
		return "", fmt.Errorf("write %s: upsert sheet: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, name); err != nil {
		return "", fmt.Errorf("write %s: clear rows: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sheet_rows (sheet, idx, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("write %s: prepare: %w", name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if row == nil {
			row = []string{}
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("write %s: marshal row %d: %w", name, i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, name, i, string(cells)); err != nil {
			return "", fmt.Errorf("write %s: insert row %d: %w", name, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write %s: commit: %w", name, err)
	}

	return revision, nil
}
