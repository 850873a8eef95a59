package store

import (
	"time"

	"github.com/roach88/verdict/internal/harness"
)

// StatusHarnessError marks an outcome row for a case the harness could not
// execute. Its error column holds the harness error text.
const StatusHarnessError = "harness_error"

// Counts summarizes a run.
type Counts struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}

// Add folds one entry into the counts.
func (c *Counts) Add(e harness.Entry) {
	c.Total++
	switch {
	case e.Err != nil || e.Result == nil:
		c.Errors++
	case e.Result.Outcome.Passed():
		c.Passed++
	default:
		c.Failed++
	}
}

// OK reports whether every case passed.
func (c Counts) OK() bool {
	return c.Failed == 0 && c.Errors == 0
}

// CountEntries summarizes a batch of RunAll entries.
func CountEntries(entries []harness.Entry) Counts {
	var c Counts
	for _, e := range entries {
		c.Add(e)
	}
	return c
}

// Run is one runner invocation.
type Run struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Source    string    `json:"source,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Counts    Counts    `json:"counts"`
	Finished  bool      `json:"finished"`
}

// OutcomeRow is one stored case outcome.
type OutcomeRow struct {
	ID       string          `json:"id"`
	RunID    string          `json:"run_id"`
	Seq      int64           `json:"seq"`
	CaseName string          `json:"case"`
	CaseRef  string          `json:"case_id,omitempty"`
	Summary  string          `json:"summary,omitempty"`
	CaseHash string          `json:"case_hash"`
	Status   string          `json:"status"`
	Outcome  harness.Outcome `json:"outcome"`
	Duration time.Duration   `json:"duration_ns"`
}

// HarnessError reports whether the harness failed to execute the case.
func (o OutcomeRow) HarnessError() bool {
	return o.Status == StatusHarnessError
}

// Label returns the summary when set, else the case name.
func (o OutcomeRow) Label() string {
	if o.Summary != "" {
		return o.Summary
	}
	return o.CaseName
}
