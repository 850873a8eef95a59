package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ops"
	"github.com/roach88/verdict/internal/scenario"
	"github.com/roach88/verdict/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter   string // scenario name filter (glob pattern)
	Parallel int    // cases run at once
	DB       string // run log path
	Update   bool   // rewrite golden report files
}

// Golden file states.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
)

// CaseResult is one executed case in a run.
type CaseResult struct {
	Name        string           `json:"name"`
	ID          string           `json:"id,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Source      string           `json:"source"`
	Status      string           `json:"status"`
	Report      string           `json:"report,omitempty"`
	Outcome     *harness.Outcome `json:"outcome,omitempty"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
	Error       string           `json:"error,omitempty"`

	// FailedAssertions counts every failed record, not only the one that
	// decided the outcome.
	FailedAssertions int `json:"failed_assertions,omitempty"`
}

// GoldenResult is the comparison of one suite file's report with its
// golden file.
type GoldenResult struct {
	Suite  string `json:"suite"`
	Golden string `json:"golden"`
	Status string `json:"status"`
	Diff   string `json:"diff,omitempty"`
}

// RunResult holds the overall result of a run.
type RunResult struct {
	RunID  string         `json:"run_id,omitempty"`
	Cases  []CaseResult   `json:"cases"`
	Golden []GoldenResult `json:"golden,omitempty"`
	Counts store.Counts   `json:"counts"`
}

// OK reports whether every case passed and every golden file matched.
func (r *RunResult) OK() bool {
	if !r.Counts.OK() {
		return false
	}
	for _, g := range r.Golden {
		if g.Status == GoldenMismatch {
			return false
		}
	}
	return true
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <path>...",
		Short: "Run test suites",
		Long: `Load suite files (.yaml, .yml, .cue) from files or directories, run
every scenario through the harness and report one status line per case.

When golden/<suite file>.golden exists next to a suite file, the suite's report
must match it byte for byte. Use --update to (re)write golden files.

Exit codes:
  0 - All cases passed
  1 - A case failed or errored, or a golden report differs
  2 - Command error (invalid paths, invalid suites, etc.)

Examples:
  verdict run ./suites
  verdict run ./suites --filter "visit-*"
  verdict run ./suites --parallel 4 --db runs.db
  verdict run ./suites --update
  verdict run ./suites --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("parallel") && opts.Config != nil {
				opts.Parallel = opts.Config.Parallel
			}
			if !cmd.Flags().Changed("db") && opts.Config != nil {
				opts.DB = opts.Config.DB
			}
			return runSuites(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios whose name matches this glob")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 1, "number of cases to run at once")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this SQLite run log")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden report files")

	return cmd
}

func runSuites(ctx context.Context, opts *RunOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.Logger

	if opts.Parallel < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --parallel %d: must be at least 1", opts.Parallel))
	}
	if opts.Update && opts.Filter != "" {
		return NewExitError(ExitCommandError, "--update rewrites whole suite reports and cannot be combined with --filter")
	}

	loaded, err := LoadSuites(paths)
	if err != nil {
		return outputLoadError(f, err)
	}
	loaded, err = loaded.Filter(opts.Filter)
	if err != nil {
		_ = f.Error(ErrCodeBadFilter, err.Error(), nil)
		return reportedError(ExitCommandError, "invalid filter", err)
	}
	f.VerboseLog("Loaded %d scenario(s) from %d suite file(s)", loaded.Count(), len(loaded.Suites))

	cases, err := loaded.Compile(ops.Default())
	if err != nil {
		return outputCompileError(f, err)
	}

	result := RunResult{Cases: []CaseResult{}}
	if len(cases) == 0 {
		if f.JSON() {
			return f.Respond(CLIResponse{Status: "ok", Data: result})
		}
		fmt.Fprintln(f.Writer, "No scenarios matched.")
		return nil
	}

	startedAt := time.Now()
	h := harness.New(harness.WithLogger(logger))
	entries, err := h.RunAll(ctx, cases, opts.Parallel)
	if err != nil {
		return WrapExitError(ExitCommandError, "run interrupted", err)
	}
	result.Counts = store.CountEntries(entries)

	offset := 0
	for _, suite := range loaded.Suites {
		suiteEntries := entries[offset : offset+len(suite.Scenarios)]
		offset += len(suite.Scenarios)

		for _, e := range suiteEntries {
			result.Cases = append(result.Cases, caseResult(suite.Path, e))
		}

		if opts.Filter != "" {
			continue
		}
		g, ok, err := checkGolden(suite.Path, suiteEntries, opts.Update)
		if err != nil {
			return WrapExitError(ExitCommandError, "golden file", err)
		}
		if ok {
			result.Golden = append(result.Golden, g)
		}
	}

	if opts.DB != "" {
		runID, err := recordRun(ctx, opts.DB, strings.Join(paths, " "), startedAt, entries)
		if err != nil {
			_ = f.Error(ErrCodeDatabase, err.Error(), nil)
			return reportedError(ExitCommandError, "failed to record run", err)
		}
		result.RunID = runID
		logger.Debug("run recorded", zap.String("run_id", runID), zap.String("db", opts.DB))
	}

	if f.JSON() {
		return outputRunJSON(f, result)
	}
	return outputRunText(f, entries, result)
}

// caseResult flattens an entry for output.
func caseResult(source string, e harness.Entry) CaseResult {
	cr := CaseResult{Source: source}
	if e.Case != nil {
		cr.Name, cr.ID, cr.Summary = e.Case.Name, e.Case.ID, e.Case.Summary
	}
	if e.Err != nil {
		cr.Status = store.StatusHarnessError
		cr.Error = e.Err.Error()
		return cr
	}
	outcome := e.Result.Outcome
	cr.Status = string(outcome.Status)
	cr.Report = harness.StatusLine(e.Result)
	cr.Diagnostics = harness.Diagnostics(e.Result)
	cr.FailedAssertions = len(e.Result.Failures())
	if !outcome.Passed() {
		cr.Outcome = &outcome
	}
	return cr
}

// checkGolden compares the report of a suite's entries with the suite's
// golden file, or rewrites it when update is set. ok is false when the
// suite has no golden file and update is not set.
func checkGolden(suitePath string, entries []harness.Entry, update bool) (g GoldenResult, ok bool, err error) {
	var results []*harness.Result
	for _, e := range entries {
		if e.Result != nil {
			results = append(results, e.Result)
		}
	}
	report := harness.RenderReport(results...)
	goldenPath := goldenFilePath(suitePath)
	g = GoldenResult{Suite: suitePath, Golden: goldenPath}

	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
			return g, false, fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(goldenPath, report, 0644); err != nil {
			return g, false, fmt.Errorf("failed to write golden file: %w", err)
		}
		g.Status = GoldenUpdated
		return g, true, nil
	}

	want, err := os.ReadFile(goldenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return g, false, nil
	}
	if err != nil {
		return g, false, fmt.Errorf("failed to read golden file: %w", err)
	}

	if bytes.Equal(want, report) {
		g.Status = GoldenMatch
		return g, true, nil
	}
	g.Status = GoldenMismatch
	g.Diff = harness.Diff(string(want), string(report))
	return g, true, nil
}

func recordRun(ctx context.Context, dbPath, source string, startedAt time.Time, entries []harness.Entry) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.RecordRun(ctx, store.UUIDv7Generator{}, source, startedAt, entries)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func outputRunJSON(f *OutputFormatter, result RunResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if !result.OK() {
		resp.Status = "error"
		resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: failureMessage(result)}
	}
	if err := f.Respond(resp); err != nil {
		return err
	}
	if !result.OK() {
		return reportedError(ExitFailure, failureMessage(result), nil)
	}
	return nil
}

func outputRunText(f *OutputFormatter, entries []harness.Entry, result RunResult) error {
	for _, e := range entries {
		if e.Err != nil {
			name := ""
			if e.Case != nil {
				name = e.Case.Name
			}
			f.ReportError(name, e.Err)
			continue
		}
		f.Report(e.Result)
	}

	for _, g := range result.Golden {
		f.Note(g.Status != GoldenMismatch, "golden %s: %s", g.Golden, g.Status)
		if g.Status == GoldenMismatch {
			if g.Diff != "" {
				fmt.Fprintln(f.Writer, strings.TrimRight(g.Diff, "\n"))
			}
			fmt.Fprintln(f.Writer, "  (run with --update to regenerate)")
		}
	}

	c := result.Counts
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "%d passed, %d failed, %d errors, %d total\n", c.Passed, c.Failed, c.Errors, c.Total)
	if result.RunID != "" {
		fmt.Fprintf(f.Writer, "Recorded run %s\n", result.RunID)
	}

	if !result.OK() {
		return reportedError(ExitFailure, failureMessage(result), nil)
	}
	return nil
}

func failureMessage(result RunResult) string {
	c := result.Counts
	if c.Failed+c.Errors > 0 {
		return fmt.Sprintf("%d case(s) failed, %d errored", c.Failed, c.Errors)
	}
	return "golden report mismatch"
}

// outputLoadError reports a suite loading failure.
func outputLoadError(f *OutputFormatter, err error) error {
	code := scenario.ErrCodeGeneric
	var details any
	var le *scenario.LoadError
	if errors.As(err, &le) {
		code = le.Code
		if le.Path != "" {
			details = map[string]any{"path": le.Path, "line": le.Line, "column": le.Column}
		}
	}
	_ = f.Error(code, err.Error(), details)
	return reportedError(ExitCommandError, "failed to load suites", err)
}

// outputCompileError reports scenarios that failed validation.
func outputCompileError(f *OutputFormatter, err error) error {
	errs, ok := scenario.AsValidationErrors(err)
	if !ok {
		_ = f.Error(ErrCodeInvalid, err.Error(), nil)
		return reportedError(ExitCommandError, "failed to compile suites", err)
	}
	return outputValidationErrors(f, errs)
}
