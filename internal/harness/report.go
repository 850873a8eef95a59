package harness

import (
	"fmt"
	"io"
	"strings"
)

// Report line prefixes.
const (
	LabelPassed = "PASSED"
	LabelFailed = "FAILED"
)

// diagnosticIndent prefixes every diagnostic line under a status line.
const diagnosticIndent = "    "

// StatusLine renders "<STATUS>: <summary> (<id>)". The id part is omitted
// when the case has no id.
func StatusLine(r *Result) string {
	label := LabelPassed
	if !r.Outcome.Passed() {
		label = LabelFailed
	}
	if r.ID == "" {
		return fmt.Sprintf("%s: %s", label, r.Label())
	}
	return fmt.Sprintf("%s: %s (%s)", label, r.Label(), r.ID)
}

// Diagnostics explains a failed Outcome, one line per entry.
// Returns nil for a pass.
func Diagnostics(r *Result) []string {
	o := r.Outcome
	if o.Passed() {
		return nil
	}

	var lines []string
	if o.Message != "" {
		lines = append(lines, o.Message)
	}

	switch o.Status {
	case StatusMismatch:
		switch o.Assertion {
		case AssertCondition:
			lines = append(lines, "Condition was false")
		case AssertNotEqual:
			lines = append(lines, fmt.Sprintf("Expected a value other than %s", Describe(o.Expected)))
		case AssertType:
			lines = append(lines, fmt.Sprintf("Expected type %s, Actual type %s", o.Expected, o.Actual))
		default:
			lines = append(lines, fmt.Sprintf("Expected value %s, Actual value %s", Describe(o.Expected), Describe(o.Actual)))
			if diff := Diff(o.Expected, o.Actual); diff != "" {
				lines = append(lines, strings.Split(strings.TrimRight(diff, "\n"), "\n")...)
			}
		}
	case StatusUnexpectedException:
		line := fmt.Sprintf("Unexpected exception %s: %s", o.Kind, o.Error)
		switch {
		case o.ExpectedKind != "":
			line += fmt.Sprintf(" (expected %s)", o.ExpectedKind)
		case o.Expected != nil:
			line += fmt.Sprintf(" (expected %s)", Describe(o.Expected))
		}
		lines = append(lines, line)
	case StatusExpectedExceptionMissing:
		if o.ExpectedKind != "" {
			lines = append(lines, fmt.Sprintf("Expected exception %s was not thrown", o.ExpectedKind))
		} else {
			lines = append(lines, fmt.Sprintf("Expected exception %s was not thrown", Describe(o.Expected)))
		}
	}
	return lines
}

// WriteReport writes the status line and any diagnostics for r.
func WriteReport(w io.Writer, r *Result) error {
	if _, err := fmt.Fprintln(w, StatusLine(r)); err != nil {
		return err
	}
	for _, line := range Diagnostics(r) {
		if _, err := fmt.Fprintln(w, diagnosticIndent+line); err != nil {
			return err
		}
	}
	return nil
}

// RenderReport returns the reports of results in order, as WriteReport
// would write them.
func RenderReport(results ...*Result) []byte {
	var sb strings.Builder
	for _, r := range results {
		_ = WriteReport(&sb, r)
	}
	return []byte(sb.String())
}
