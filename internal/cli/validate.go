package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/ops"
	"github.com/roach88/verdict/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                      `json:"valid"`
	Files     int                       `json:"files,omitempty"`
	Scenarios int                       `json:"scenarios,omitempty"`
	Errors    scenario.ValidationErrors `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate suites without running them",
		Long: `Load and compile suite files without executing any scenario.

Reports every problem found: unknown step types, unknown ops or kinds,
arity errors, floats, references to names not bound earlier and duplicate
scenario names.

Exit codes:
  0 - All suites valid
  1 - One or more scenarios are invalid
  2 - Command error (paths not found, unreadable suite files)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadSuites(paths)
	if err != nil {
		return outputLoadError(f, err)
	}
	f.VerboseLog("Found %d suite file(s)", len(loaded.Suites))

	errs := scenario.ValidateAll(loaded.Scenarios(), ops.Default())
	if len(errs) > 0 {
		return reportValidationErrors(f, errs, ExitFailure)
	}

	result := ValidationResult{Valid: true, Files: len(loaded.Suites), Scenarios: loaded.Count()}
	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "All suites valid (%d scenario(s) in %d file(s))\n", result.Scenarios, result.Files)
	return nil
}

// outputValidationErrors reports invalid scenarios found while preparing a
// run; they are command errors there.
func outputValidationErrors(f *OutputFormatter, errs scenario.ValidationErrors) error {
	return reportValidationErrors(f, errs, ExitCommandError)
}

func reportValidationErrors(f *OutputFormatter, errs scenario.ValidationErrors, code int) error {
	message := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	if f.JSON() {
		err := f.Respond(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		})
		if err != nil {
			return err
		}
		return reportedError(code, message, errs)
	}

	fmt.Fprintln(f.Writer, "Validation failed")
	fmt.Fprintln(f.Writer)
	for _, e := range errs {
		fmt.Fprintf(f.Writer, "  %s\n", e.Error())
	}
	return reportedError(code, message, errs)
}
