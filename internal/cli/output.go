package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/verdict/internal/harness"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Every case passed
	ExitFailure      = 1 // A case failed, errored, or a golden report differs
	ExitCommandError = 2 // Command error (invalid paths, invalid suites, database errors)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the command's
	// output, so the entry point only sets the exit code.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// reportedError is an ExitError that the formatter has already written.
func reportedError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err, Reported: true}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitCommandError if the error is not an
// ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Error codes used in CLI responses besides the loader and validation codes.
const (
	ErrCodeTestFailed = "E_TEST_FAILED"
	ErrCodeBadFilter  = "E_BAD_FILTER"
	ErrCodeDatabase   = "E_DATABASE"
	ErrCodeInvalid    = "E_INVALID"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	NoColor   bool
}

// newFormatter builds a formatter for cmd's writers.
func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
		NoColor:   opts.NoColor,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E004", "E201", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Respond writes a full response envelope. Text mode ignores it.
func (f *OutputFormatter) Respond(resp CLIResponse) error {
	if !f.JSON() {
		return nil
	}
	return f.encode(resp)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// It writes to ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// paint returns a color for c, disabled when NoColor is set.
func (f *OutputFormatter) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if f.NoColor {
		c.DisableColor()
	}
	return c
}

// Report writes a case's status line, with its label colored, followed by
// the indented diagnostics.
func (f *OutputFormatter) Report(r *harness.Result) {
	line := harness.StatusLine(r)
	label, c := harness.LabelPassed, f.paint(color.FgGreen, color.Bold)
	if !r.Outcome.Passed() {
		label, c = harness.LabelFailed, f.paint(color.FgRed, color.Bold)
	}
	fmt.Fprintln(f.Writer, c.Sprint(label)+strings.TrimPrefix(line, label))

	dim := f.paint(color.FgYellow)
	for _, d := range harness.Diagnostics(r) {
		fmt.Fprintln(f.Writer, dim.Sprint("    "+d))
	}
}

// ReportError writes the line for a case the harness could not execute.
func (f *OutputFormatter) ReportError(name string, err error) {
	fmt.Fprintf(f.Writer, "%s: %s: %v\n", f.paint(color.FgMagenta, color.Bold).Sprint("ERROR"), name, err)
}

// Note writes a secondary line, such as a golden file result.
func (f *OutputFormatter) Note(ok bool, format string, args ...any) {
	c := f.paint(color.FgCyan)
	if !ok {
		c = f.paint(color.FgRed)
	}
	fmt.Fprintln(f.Writer, c.Sprintf(format, args...))
}
