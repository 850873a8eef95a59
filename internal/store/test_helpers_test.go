package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/verdict/internal/harness"
)

// createTestStore opens a fresh run log in a temp directory.
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

// testCases returns one passing, one mismatching and one invalid case.
func testCases() []*harness.TestCase {
	return []*harness.TestCase{
		{
			ID:      "S15.5.4.14_A3_T8",
			Name:    "split-array-receiver",
			Summary: "split on an array receiver",
			Body: func(t *harness.T) error {
				t.Equal("1,2,3,4,5", "1,2,3,4,5", "#1")
				return nil
			},
		},
		{
			ID:   "463863",
			Name: "visit-count",
			Body: func(t *harness.T) error {
				t.Condition(true, "#0")
				t.Equal(2, 3, "#1: visit count")
				return nil
			},
		},
		{Name: "no-body"},
	}
}

// runEntries executes cases through the harness.
func runEntries(t *testing.T, cases []*harness.TestCase) []harness.Entry {
	t.Helper()
	entries, err := harness.New().RunAll(context.Background(), cases, 1)
	if err != nil {
		t.Fatalf("RunAll() failed: %v", err)
	}
	return entries
}
