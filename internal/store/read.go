package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/verdict/internal/harness"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

const runColumns = `id, seq, source, started_at, total, passed, failed, errors, finished`

const outcomeColumns = `id, run_id, seq, case_name, case_ref, summary, case_hash, status,
	assertion, message, actual, expected, kind, expected_kind, error, duration_ns`

// ListRuns returns the most recent runs, newest first.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a run by id. Unknown ids wrap ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// LatestRun returns the run with the highest sequence number.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ReadOutcomes returns the outcomes of a run in case order.
func (s *Store) ReadOutcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+outcomeColumns+`
		FROM outcomes
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}
	return collectOutcomes(rows, "read outcomes")
}

// ReadCaseHistory returns the stored outcomes of one case across runs,
// newest run first. A limit <= 0 returns every outcome.
func (s *Store) ReadCaseHistory(ctx context.Context, caseName string, limit int) ([]OutcomeRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.run_id, o.seq, o.case_name, o.case_ref, o.summary, o.case_hash, o.status,
			o.assertion, o.message, o.actual, o.expected, o.kind, o.expected_kind, o.error, o.duration_ns
		FROM outcomes o
		JOIN runs r ON r.id = o.run_id
		WHERE o.case_name = ?
		ORDER BY r.seq DESC, o.seq ASC, o.id COLLATE BINARY ASC
		LIMIT ?
	`, caseName, limit)
	if err != nil {
		return nil, fmt.Errorf("read case history: %w", err)
	}
	return collectOutcomes(rows, "read case history")
}

// ReadAssertions returns the assertion records of an outcome in order.
func (s *Store) ReadAssertions(ctx context.Context, outcomeID string) ([]harness.AssertionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, passed, status, message, actual, expected, kind, expected_kind, error
		FROM assertions
		WHERE outcome_id = ?
		ORDER BY seq ASC
	`, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("read assertions: %w", err)
	}
	defer rows.Close()

	var records []harness.AssertionRecord
	for rows.Next() {
		var (
			rec                        harness.AssertionRecord
			typ, status, kind, expKind string
			actual, expected           sql.NullString
		)
		if err := rows.Scan(&rec.Seq, &typ, &rec.Passed, &status, &rec.Message,
			&actual, &expected, &kind, &expKind, &rec.Error); err != nil {
			return nil, fmt.Errorf("read assertions: scan: %w", err)
		}
		rec.Type = harness.AssertionType(typ)
		rec.Status = harness.Status(status)
		rec.Kind = harness.Kind(kind)
		rec.ExpectedKind = harness.Kind(expKind)
		if rec.Actual, err = unmarshalValue(actual); err != nil {
			return nil, fmt.Errorf("read assertions: %w", err)
		}
		if rec.Expected, err = unmarshalValue(expected); err != nil {
			return nil, fmt.Errorf("read assertions: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read assertions: %w", err)
	}
	return records, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (Run, error) {
	var (
		run       Run
		startedAt int64
	)
	err := r.Scan(&run.ID, &run.Seq, &run.Source, &startedAt,
		&run.Counts.Total, &run.Counts.Passed, &run.Counts.Failed, &run.Counts.Errors, &run.Finished)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.Unix(0, startedAt)
	return run, nil
}

func collectOutcomes(rows *sql.Rows, op string) ([]OutcomeRow, error) {
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanOutcome(r rowScanner) (OutcomeRow, error) {
	var (
		o                        OutcomeRow
		assertion, kind, expKind string
		actual, expected         sql.NullString
		duration                 int64
	)
	err := r.Scan(&o.ID, &o.RunID, &o.Seq, &o.CaseName, &o.CaseRef, &o.Summary, &o.CaseHash, &o.Status,
		&assertion, &o.Outcome.Message, &actual, &expected, &kind, &expKind, &o.Outcome.Error, &duration)
	if err != nil {
		return OutcomeRow{}, fmt.Errorf("scan outcome: %w", err)
	}

	if !o.HarnessError() {
		o.Outcome.Status = harness.Status(o.Status)
	}
	o.Outcome.Assertion = harness.AssertionType(assertion)
	o.Outcome.Kind = harness.Kind(kind)
	o.Outcome.ExpectedKind = harness.Kind(expKind)
	o.Duration = time.Duration(duration)

	if o.Outcome.Actual, err = unmarshalValue(actual); err != nil {
		return OutcomeRow{}, err
	}
	if o.Outcome.Expected, err = unmarshalValue(expected); err != nil {
		return OutcomeRow{}, err
	}
	return o, nil
}
