package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calliope-studio/calliope/internal/schema"
)

// ValidationResult holds document validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a project document without importing it",
		Long: `Validate a project document (JSON or YAML) against the bundle schema.

Checks shape (required fields, types, closed structs) and structure
(duplicate IDs, timeline contiguity, dangling references). All violations
are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error("E001", fmt.Sprintf("cannot read document: %v", err), nil)
		return WrapExitError(ExitCommandError, "read document", err)
	}

	format := schema.DetectFormat(data)
	formatter.VerboseLog("Detected %s document (%d bytes)", format, len(data))

	b, verrs, err := schema.Import(data, format)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse document", err)
	}

	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	formatter.VerboseLog("Project %s: %d shots, %d assets", b.Project.ID, len(b.Shots), len(b.Assets))
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Document valid")
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, verrs []schema.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: verrs},
			Error: &CLIError{
				Code:    verrs[0].Code,
				Message: verrs[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, ve := range verrs {
		fmt.Fprintf(formatter.Writer, "  %s\n", ve.Error())
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
}
