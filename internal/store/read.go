package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Read returns the named table with its revision.
// Rows are returned in the order they were written (ORDER BY idx ASC).
//
// A table that has never been written returns an empty Table with
// EmptyRevision and a nil error.
func (s *Store) Read(ctx context.Context, name string) (Table, error) {
	// Deferred transaction on the reader pool: a consistent snapshot of
	// header and rows without taking the write lock.
	tx, err := s.rdb.BeginTx(ctx, nil)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: begin tx: %w", name, err)
	}
	defer tx.Rollback() // read-only, never committed

	var headerJSON, revision string
	err = tx.QueryRowContext(ctx, `
		SELECT header, revision FROM sheets WHERE name = ?
	`, name).Scan(&headerJSON, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Table{Name: name, Header: []string{}, Rows: [][]string{}, Revision: EmptyRevision}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	var header []string
	if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
		return Table{}, fmt.Errorf("read %s: unmarshal header: %w", name, err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT cells FROM sheet_rows
		WHERE sheet = ?
		ORDER BY idx ASC
	`, name)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: query rows: %w", name, err)
	}
	defer rows.Close()

	cells := [][]string{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return Table{}, fmt.Errorf("read %s: scan row: %w", name, err)
		}
		var row []string
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return Table{}, fmt.Errorf("read %s: unmarshal row %d: %w", name, len(cells)+1, err)
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("read %s: iterate rows: %w", name, err)
	}

	return Table{Name: name, Header: header, Rows: cells, Revision: revision}, nil
}
