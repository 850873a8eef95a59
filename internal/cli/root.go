package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/verdict/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	NoColor bool
	EnvFile string

	// Resolved in PersistentPreRunE.
	Config *config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the verdict CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "verdict",
		Short: "verdict - test case execution and comparison harness",
		Long: `Runs declarative test suites through the verdict harness.

Each scenario becomes a test case whose assertions are recorded and reduced
to one outcome: pass, mismatch, unexpected_exception or
expected_exception_missing. Results print as "<STATUS>: <summary> (<id>)".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.Logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored status lines")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "file of VERDICT_* settings to load")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// flagEnv maps flags to the variables they override. Subcommand flags are
// included; Changed reports false for flags a command does not define.
var flagEnv = map[string]string{
	"format":   config.EnvFormat,
	"no-color": config.EnvNoColor,
	"parallel": config.EnvParallel,
	"db":       config.EnvDB,
}

// resolve loads configuration, applies explicit flags over it and builds
// the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var skip []string
	for flag, env := range flagEnv {
		if flags.Changed(flag) {
			skip = append(skip, env)
		}
	}

	cfg, err := config.Load(o.EnvFile, skip...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("no-color") {
		cfg.NoColor = o.NoColor
	}
	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	o.Format = cfg.Format
	o.NoColor = cfg.NoColor
	o.Config = cfg

	level := zapcore.WarnLevel
	if o.Verbose {
		level = zapcore.DebugLevel
	}
	o.Logger = newLogger(cmd, level)
	return nil
}

// newLogger writes development-style console logs to the command's stderr,
// keeping stdout free for results.
func newLogger(cmd *cobra.Command, level zapcore.Level) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(cmd.ErrOrStderr()), level)
	return zap.New(core).Named("verdict")
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
