package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	testHeader = []string{"year", "group", "name", "role", "status"}
	testRows   = [][]string{
		{"2024", "1", "김철수", "집사", "Active"},
		{"2024", "1", "이영희", "", "LongAbsent"},
	}
)
