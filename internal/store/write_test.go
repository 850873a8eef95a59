package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
	"github.com/roach88/verdict/internal/testutil"
)

var startedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestBeginRun_SequenceIncrements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx, "run-a", "suites/a.yaml", startedAt)
	require.NoError(t, err)
	second, err := s.BeginRun(ctx, "run-b", "suites/b.yaml", startedAt)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.False(t, first.Finished)
}

func TestBeginRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginRun(ctx, "run-a", "", startedAt)
	require.NoError(t, err)
	_, err = s.BeginRun(ctx, "run-a", "", startedAt)
	assert.Error(t, err)
}

func TestWriteOutcome_ContentAddressed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	entries := runEntries(t, testCases())

	_, err := s.BeginRun(ctx, "run-a", "", startedAt)
	require.NoError(t, err)

	id, err := s.WriteOutcome(ctx, "run-a", 1, entries[0])
	require.NoError(t, err)
	assert.Equal(t, ir.MustOutcomeID("run-a", 1, "split-array-receiver"), id)
}

func TestWriteOutcome_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	entries := runEntries(t, testCases())

	_, err := s.BeginRun(ctx, "run-a", "", startedAt)
	require.NoError(t, err)

	first, err := s.WriteOutcome(ctx, "run-a", 2, entries[1])
	require.NoError(t, err)
	second, err := s.WriteOutcome(ctx, "run-a", 2, entries[1])
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var outcomes, assertions int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM outcomes`).Scan(&outcomes))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM assertions`).Scan(&assertions))
	assert.Equal(t, 1, outcomes)
	assert.Equal(t, 2, assertions)
}

func TestWriteOutcome_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	entries := runEntries(t, testCases())

	_, err := s.WriteOutcome(context.Background(), "missing", 1, entries[0])
	assert.Error(t, err, "foreign key must reject outcomes of unknown runs")
}

func TestWriteOutcome_EmptyEntry(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.BeginRun(ctx, "run-a", "", startedAt)
	require.NoError(t, err)

	_, err = s.WriteOutcome(ctx, "run-a", 1, harness.Entry{Case: &harness.TestCase{Name: "x"}})
	assert.Error(t, err)
}

func TestFinishRun_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	err := s.FinishRun(context.Background(), "missing", Counts{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := testutil.NewFixedRunIDGenerator("run-1")

	run, err := s.RecordRun(ctx, gen, "suites", startedAt, runEntries(t, testCases()))
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.True(t, run.Finished)
	assert.Equal(t, Counts{Total: 3, Passed: 1, Failed: 1, Errors: 1}, run.Counts)
	assert.False(t, run.Counts.OK())

	stored, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Counts, stored.Counts)
	assert.Equal(t, "suites", stored.Source)
	assert.True(t, stored.StartedAt.Equal(startedAt))
}

func TestCountEntries(t *testing.T) {
	c := CountEntries(runEntries(t, testCases()[:1]))
	assert.Equal(t, Counts{Total: 1, Passed: 1}, c)
	assert.True(t, c.OK())
	assert.True(t, Counts{}.OK())
}

func TestUUIDv7Generator(t *testing.T) {
	var gen UUIDv7Generator
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}
