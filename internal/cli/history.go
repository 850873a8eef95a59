package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	RunID string
	Case  string
	Limit int
}

// HistoryResult is the payload of the history command. Which fields are
// set depends on the query.
type HistoryResult struct {
	Runs     []store.Run        `json:"runs,omitempty"`
	Run      *store.Run         `json:"run,omitempty"`
	Outcomes []store.OutcomeRow `json:"outcomes,omitempty"`
	Case     string             `json:"case,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the run log",
		Long: `Show runs recorded with "verdict run --db".

Without --run or --case, lists the most recent runs. --run shows the
outcomes of one run ("latest" picks the newest). --case shows how one
scenario fared across runs.

Examples:
  verdict history --db runs.db
  verdict history --db runs.db --run latest
  verdict history --db runs.db --case visit-count --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") && opts.Config != nil {
				opts.DB = opts.Config.DB
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the SQLite run log")
	cmd.Flags().StringVar(&opts.RunID, "run", "", `show the outcomes of one run ("latest" for the newest)`)
	cmd.Flags().StringVar(&opts.Case, "case", "", "show one scenario's outcomes across runs")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum rows to show (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	if opts.DB == "" {
		return NewExitError(ExitCommandError, "--db is required (or set VERDICT_DB)")
	}
	if opts.RunID != "" && opts.Case != "" {
		return NewExitError(ExitCommandError, "--run and --case cannot be combined")
	}
	st, err := store.Open(opts.DB, store.ReadOnly())
	if err != nil {
		_ = f.Error(ErrCodeDatabase, fmt.Sprintf("cannot read run log %s: %v", opts.DB, err), nil)
		return reportedError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	var result HistoryResult
	switch {
	case opts.RunID != "":
		var run store.Run
		if opts.RunID == "latest" {
			run, err = st.LatestRun(ctx)
		} else {
			run, err = st.ReadRun(ctx, opts.RunID)
		}
		if err == nil {
			result.Run = &run
			result.Outcomes, err = st.ReadOutcomes(ctx, run.ID)
		}
	case opts.Case != "":
		result.Case = opts.Case
		result.Outcomes, err = st.ReadCaseHistory(ctx, opts.Case, opts.Limit)
	default:
		result.Runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = f.Error(ErrCodeDatabase, err.Error(), nil)
			return reportedError(ExitCommandError, "not found", err)
		}
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return reportedError(ExitCommandError, "failed to query run log", err)
	}

	if f.JSON() {
		return f.Success(result)
	}
	writeHistoryText(f, result)
	return nil
}

func writeHistoryText(f *OutputFormatter, result HistoryResult) {
	w := f.Writer
	switch {
	case result.Run != nil:
		writeRunLine(f, *result.Run)
		for _, o := range result.Outcomes {
			writeOutcomeLine(f, "  ", o)
		}
	case result.Case != "":
		if len(result.Outcomes) == 0 {
			fmt.Fprintf(w, "No outcomes recorded for %s.\n", result.Case)
			return
		}
		for _, o := range result.Outcomes {
			writeOutcomeLine(f, o.RunID+"  ", o)
		}
	default:
		if len(result.Runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		for _, run := range result.Runs {
			writeRunLine(f, run)
		}
	}
}

func writeRunLine(f *OutputFormatter, run store.Run) {
	c := run.Counts
	state := ""
	if !run.Finished {
		state = " (unfinished)"
	}
	f.Note(c.OK(), "#%d %s  %s  %d passed, %d failed, %d errors, %d total%s",
		run.Seq, run.ID, run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		c.Passed, c.Failed, c.Errors, c.Total, state)
}

// writeOutcomeLine prints a stored outcome the way the run printed it.
func writeOutcomeLine(f *OutputFormatter, prefix string, o store.OutcomeRow) {
	if o.HarnessError() {
		fmt.Fprint(f.Writer, prefix)
		f.ReportError(o.CaseName, errors.New(o.Outcome.Error))
		return
	}
	res := &harness.Result{ID: o.CaseRef, Name: o.CaseName, Summary: o.Summary, Outcome: o.Outcome}
	fmt.Fprint(f.Writer, prefix)
	f.Report(res)
}
