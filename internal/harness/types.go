package harness

import (
	"time"
)

// Body is the executable logic of a TestCase.
// Returning a non-nil error is the same as throwing it: the harness
// classifies it and the TestCase ends with unexpected_exception.
type Body func(t *T) error

// TestCase is a named, executable unit of verification logic.
type TestCase struct {
	// ID is the bug or reference id (e.g. "369696", "S15.5.4.14_A3_T8").
	ID string `json:"id,omitempty"`

	// Name identifies the case. Required.
	Name string `json:"name"`

	// Summary is the human-readable description used in the status line.
	// Defaults to Name when empty.
	Summary string `json:"summary,omitempty"`

	// Body runs the case. Required.
	Body Body `json:"-"`
}

// Label returns the text used in the status line.
func (tc *TestCase) Label() string {
	if tc.Summary != "" {
		return tc.Summary
	}
	return tc.Name
}

// Status is the terminal classification of a TestCase execution.
type Status string

const (
	StatusPass                     Status = "pass"
	StatusMismatch                 Status = "mismatch"
	StatusUnexpectedException      Status = "unexpected_exception"
	StatusExpectedExceptionMissing Status = "expected_exception_missing"
)

// Passed reports whether s is StatusPass.
func (s Status) Passed() bool {
	return s == StatusPass
}

// AssertionType identifies the check an AssertionRecord made.
type AssertionType string

const (
	AssertCondition AssertionType = "condition"
	AssertEqual     AssertionType = "equal"
	AssertNotEqual  AssertionType = "not_equal"
	AssertType      AssertionType = "type"
	AssertThrows    AssertionType = "throws"

	// AssertUncaught records a value thrown out of the body itself.
	AssertUncaught AssertionType = "uncaught"
)

// AssertionRecord is a single recorded check within a TestCase execution.
type AssertionRecord struct {
	// Seq orders records within one execution, starting at 1.
	Seq int64 `json:"seq"`

	Type AssertionType `json:"type"`

	// Message is the caller's failure message, already formatted.
	Message string `json:"message,omitempty"`

	Passed bool `json:"passed"`

	// Status is StatusPass when Passed, otherwise the failure classification.
	Status Status `json:"status"`

	// Actual and Expected hold the compared values (ir.Value when representable).
	Actual   any `json:"actual,omitempty"`
	Expected any `json:"expected,omitempty"`

	// Kind is the kind actually thrown (throws, uncaught).
	Kind Kind `json:"kind,omitempty"`

	// ExpectedKind is the kind a throws check required.
	ExpectedKind Kind `json:"expected_kind,omitempty"`

	// Error is the text of the thrown value, if any.
	Error string `json:"error,omitempty"`
}

// Outcome is the terminal classification of one TestCase execution.
// It is a value type; copies are independent of the execution that produced it.
type Outcome struct {
	Status Status `json:"status"`

	// Assertion is the type of the record that decided a failure.
	Assertion AssertionType `json:"assertion,omitempty"`

	Message      string `json:"message,omitempty"`
	Actual       any    `json:"actual,omitempty"`
	Expected     any    `json:"expected,omitempty"`
	Kind         Kind   `json:"kind,omitempty"`
	ExpectedKind Kind   `json:"expected_kind,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Passed reports whether the outcome is a pass.
func (o Outcome) Passed() bool {
	return o.Status.Passed()
}

// reduce folds records into the Outcome: the first failure wins.
func reduce(records []AssertionRecord) Outcome {
	for _, rec := range records {
		if rec.Passed {
			continue
		}
		return Outcome{
			Status:       rec.Status,
			Assertion:    rec.Type,
			Message:      rec.Message,
			Actual:       rec.Actual,
			Expected:     rec.Expected,
			Kind:         rec.Kind,
			ExpectedKind: rec.ExpectedKind,
			Error:        rec.Error,
		}
	}
	return Outcome{Status: StatusPass}
}

// Result is everything one execution produced.
type Result struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`

	Outcome Outcome           `json:"outcome"`
	Records []AssertionRecord `json:"records"`

	// Duration is wall time spent in the body. Never used for ordering.
	Duration time.Duration `json:"duration_ns"`
}

// Label returns the text used in the status line.
func (r *Result) Label() string {
	if r.Summary != "" {
		return r.Summary
	}
	return r.Name
}

// Failures returns the failed records in sequence order.
func (r *Result) Failures() []AssertionRecord {
	var failed []AssertionRecord
	for _, rec := range r.Records {
		if !rec.Passed {
			failed = append(failed, rec)
		}
	}
	return failed
}
