package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calliope-studio/calliope/internal/scenario"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and report its assertions",
		Long: `Run a YAML scenario against a fresh store and history tracker.

The scenario's steps execute in order and its assertions are checked
against the final state. The trace is printed in verbose mode.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := scenario.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "load scenario", err)
	}

	result, err := scenario.Run(s)
	if err != nil {
		_ = formatter.Error("E002", err.Error(), nil)
		return WrapExitError(ExitCommandError, "run scenario", err)
	}

	for _, ev := range result.Trace {
		formatter.VerboseLog("step %d: %s -> %v", ev.Seq, ev.Op, ev.State)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s: %d steps, all assertions passed\n", s.Name, len(result.Trace))
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s failed\n", s.Name)
		for _, msg := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", msg)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario failed with %d error(s)", len(result.Errors)))
	}
	return nil
}
