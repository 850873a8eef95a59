package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
	"github.com/roach88/verdict/internal/testutil"
)

// recordRuns stores n runs of testCases with ids test-run-1..n.
func recordRuns(t *testing.T, s *Store, n int) {
	t.Helper()
	gen := testutil.NewFixedRunIDGenerator()
	for i := 0; i < n; i++ {
		_, err := s.RecordRun(context.Background(), gen, "", startedAt, runEntries(t, testCases()))
		require.NoError(t, err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	recordRuns(t, s, 3)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "test-run-3", runs[0].ID)
	assert.Equal(t, "test-run-1", runs[2].ID)

	limited, err := s.ListRuns(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.LatestRun(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLatestRun(t *testing.T) {
	s := createTestStore(t)
	recordRuns(t, s, 2)

	run, err := s.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-run-2", run.ID)
	assert.Equal(t, int64(2), run.Seq)
}

func TestReadOutcomes_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	entries := runEntries(t, testCases())
	_, err := s.RecordRun(ctx, testutil.NewFixedRunIDGenerator("run-1"), "", startedAt, entries)
	require.NoError(t, err)

	outcomes, err := s.ReadOutcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	passed := outcomes[0]
	assert.Equal(t, "split-array-receiver", passed.CaseName)
	assert.Equal(t, "S15.5.4.14_A3_T8", passed.CaseRef)
	assert.Equal(t, "split on an array receiver", passed.Label())
	assert.Equal(t, harness.Outcome{Status: harness.StatusPass}, passed.Outcome)

	failed := outcomes[1]
	assert.Equal(t, string(harness.StatusMismatch), failed.Status)
	assert.Equal(t, entries[1].Result.Outcome, failed.Outcome)
	assert.Equal(t, ir.Int(2), failed.Outcome.Actual)
	assert.Equal(t, "#1: visit count", failed.Outcome.Message)

	broken := outcomes[2]
	assert.True(t, broken.HarnessError())
	assert.Equal(t, harness.Status(""), broken.Outcome.Status)
	assert.Contains(t, broken.Outcome.Error, "no body")
}

func TestReadOutcomes_CaseHashStableAcrossRuns(t *testing.T) {
	s := createTestStore(t)
	recordRuns(t, s, 2)

	first, err := s.ReadOutcomes(context.Background(), "test-run-1")
	require.NoError(t, err)
	second, err := s.ReadOutcomes(context.Background(), "test-run-2")
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].CaseHash, second[i].CaseHash)
		assert.NotEqual(t, first[i].ID, second[i].ID)
	}
}

func TestReadAssertions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	entries := runEntries(t, testCases())
	_, err := s.RecordRun(ctx, testutil.NewFixedRunIDGenerator("run-1"), "", startedAt, entries)
	require.NoError(t, err)

	records, err := s.ReadAssertions(ctx, ir.MustOutcomeID("run-1", 2, "visit-count"))
	require.NoError(t, err)
	assert.Equal(t, entries[1].Result.Records, records)
}

func TestReadCaseHistory(t *testing.T) {
	s := createTestStore(t)
	recordRuns(t, s, 3)

	history, err := s.ReadCaseHistory(context.Background(), "visit-count", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "test-run-3", history[0].RunID)
	assert.Equal(t, "test-run-2", history[1].RunID)

	none, err := s.ReadCaseHistory(context.Background(), "unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"absent", nil, nil},
		{"null", ir.Null{}, ir.Null{}},
		{"string", "", ir.String("")},
		{"decomposed string", "e\u0301", ir.String("e\u0301")},
		{"array", []any{"1,2,3,4,5"}, ir.NewArray(ir.String("1,2,3,4,5"))},
		{"outside the value model", struct{ A int }{1}, ir.String("struct { A int }{A:1}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := marshalValue(tt.in)
			require.NoError(t, err)
			got, err := unmarshalValue(ns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
