package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
)

// BeginRun inserts a run with the next run sequence number.
// Counts stay zero until FinishRun.
func (s *Store) BeginRun(ctx context.Context, id, source string, startedAt time.Time) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("begin run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, source, started_at)
		VALUES (?, ?, ?, ?)
	`, id, seq, source, startedAt.UnixNano())
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("begin run: commit: %w", err)
	}

	return Run{ID: id, Seq: seq, Source: source, StartedAt: time.Unix(0, startedAt.UnixNano())}, nil
}

// WriteOutcome stores one entry of a run together with its assertion
// records, in a single transaction. It returns the outcome id.
//
// Uses ON CONFLICT DO NOTHING, so writing the same (run, seq, case) twice
// keeps the first write.
func (s *Store) WriteOutcome(ctx context.Context, runID string, seq int64, e harness.Entry) (string, error) {
	var name, ref, summary string
	if e.Case != nil {
		name, ref, summary = e.Case.Name, e.Case.ID, e.Case.Summary
	}

	id, err := ir.OutcomeID(runID, seq, name)
	if err != nil {
		return "", fmt.Errorf("write outcome: %w", err)
	}
	caseHash, err := ir.CaseHash(ref, name, summary)
	if err != nil {
		return "", fmt.Errorf("write outcome: %w", err)
	}

	var (
		status   string
		outcome  harness.Outcome
		records  []harness.AssertionRecord
		duration time.Duration
	)
	switch {
	case e.Err != nil:
		status = StatusHarnessError
		outcome.Error = e.Err.Error()
	case e.Result != nil:
		status = string(e.Result.Outcome.Status)
		outcome = e.Result.Outcome
		records = e.Result.Records
		duration = e.Result.Duration
	default:
		return "", fmt.Errorf("write outcome: entry %d has neither result nor error", seq)
	}

	actual, err := marshalValue(outcome.Actual)
	if err != nil {
		return "", fmt.Errorf("write outcome: actual: %w", err)
	}
	expected, err := marshalValue(outcome.Expected)
	if err != nil {
		return "", fmt.Errorf("write outcome: expected: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write outcome: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO outcomes
		(id, run_id, seq, case_name, case_ref, summary, case_hash, status, assertion,
		 message, actual, expected, kind, expected_kind, error, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		id, runID, seq, name, ref, summary, caseHash, status, string(outcome.Assertion),
		outcome.Message, actual, expected, string(outcome.Kind), string(outcome.ExpectedKind),
		outcome.Error, int64(duration),
	)
	if err != nil {
		return "", fmt.Errorf("write outcome: %w", err)
	}

	// Already stored: keep the first write and its records.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return id, tx.Commit()
	}

	for _, rec := range records {
		if err := writeAssertion(ctx, tx, id, rec); err != nil {
			return "", fmt.Errorf("write outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write outcome: commit: %w", err)
	}
	return id, nil
}

func writeAssertion(ctx context.Context, tx *sql.Tx, outcomeID string, rec harness.AssertionRecord) error {
	actual, err := marshalValue(rec.Actual)
	if err != nil {
		return fmt.Errorf("assertion %d: actual: %w", rec.Seq, err)
	}
	expected, err := marshalValue(rec.Expected)
	if err != nil {
		return fmt.Errorf("assertion %d: expected: %w", rec.Seq, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assertions
		(outcome_id, seq, type, passed, status, message, actual, expected, kind, expected_kind, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		outcomeID, rec.Seq, string(rec.Type), rec.Passed, string(rec.Status), rec.Message,
		actual, expected, string(rec.Kind), string(rec.ExpectedKind), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("assertion %d: %w", rec.Seq, err)
	}
	return nil
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, c Counts) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET total = ?, passed = ?, failed = ?, errors = ?, finished = 1
		WHERE id = ?
	`, c.Total, c.Passed, c.Failed, c.Errors, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// RecordRun stores a whole RunAll batch: a new run, one outcome per entry
// (sequence numbers follow entry order, starting at 1) and the final counts.
func (s *Store) RecordRun(ctx context.Context, gen RunIDGenerator, source string, startedAt time.Time, entries []harness.Entry) (Run, error) {
	run, err := s.BeginRun(ctx, gen.Generate(), source, startedAt)
	if err != nil {
		return Run{}, err
	}

	for i, e := range entries {
		if _, err := s.WriteOutcome(ctx, run.ID, int64(i+1), e); err != nil {
			return Run{}, err
		}
	}

	run.Counts = CountEntries(entries)
	if err := s.FinishRun(ctx, run.ID, run.Counts); err != nil {
		return Run{}, err
	}
	run.Finished = true
	return run, nil
}
