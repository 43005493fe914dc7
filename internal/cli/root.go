// Package cli implements the deltahist command line surface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/deltahist/internal/pipeline"
)

// NewRootCommand creates the deltahist command.
func NewRootCommand() *cobra.Command {
	opts := NewOptions()
	var configFile string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "deltahist",
		Short: "Histogram the difference between two numeric columns",
		Long: `deltahist streams tabular records and computes the distribution of a
pairwise difference between two numeric columns, emitting a compressed
HdrHistogram as a single base64 line on stdout.

The two values come either from the same row (single input) or from two
separately ordered inputs joined on a key column. Inputs are CSV (optionally
gzipped, "-" for stdin) or SQLite databases, selected by suffix.

Examples:
  deltahist --input trades.csv --lhs-column ack_ts --rhs-column submit_ts
  deltahist --input sent.csv --rhs-input received.csv.gz \
      --lhs-column ts --rhs-column ts --join-column msg_id --oob saturate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, configFile, verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Input, "input", "", "primary (left) input location (required)")
	flags.StringVar(&opts.LHSColumn, "lhs-column", "", "minuend column name (required)")
	flags.StringVar(&opts.RHSColumn, "rhs-column", "", "subtrahend column name (required)")
	flags.Int64Var(&opts.MaxValue, "max-value", opts.MaxValue, "inclusive histogram upper bound")
	flags.IntVar(&opts.Sigfigs, "sigfigs", opts.Sigfigs, "significant decimal digits (1-5)")
	flags.StringVar(&opts.RHSInput, "rhs-input", "", "secondary (right) input location")
	flags.StringVar(&opts.JoinColumn, "join-column", "", "join key column name")
	flags.StringVar(&opts.OOB, "oob", opts.OOB, "out-of-bounds rule (error|drop|saturate)")
	flags.StringVar(&opts.Negatives, "negatives", opts.Negatives, "dual-stream negative differences (keep|skip)")
	flags.StringVar(&opts.Table, "table", opts.Table, "table name for SQLite inputs")
	flags.StringVar(&configFile, "config", "", "YAML file supplying any of the above")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func run(cmd *cobra.Command, opts *Options, configFile string, verbose bool) error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	if configFile != "" {
		if err := opts.MergeConfigFile(configFile, cmd.Flags()); err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	}
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		if pipeline.IsConfigError(err) {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		return WrapExitError(ExitFailure, "run failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Encoded)
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "deltahist: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
