package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calliope-studio/calliope/internal/archive"
)

// NewVersionsCommand creates the versions command group.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect and record entity generation versions",
	}
	cmd.AddCommand(newVersionsListCommand(rootOpts))
	cmd.AddCommand(newVersionsRecordCommand(rootOpts))
	return cmd
}

func newVersionsListCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "list <kind> <entity-id>",
		Short:         "List retained generations of an entity",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionsList(rootOpts, args[0], args[1], dbPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	return cmd
}

func runVersionsList(opts *RootOptions, kind, id, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	a, err := openArchive(dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	versions, err := a.ListVersions(cmd.Context(), kind, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "list versions", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(versions)
	}
	if len(versions) == 0 {
		fmt.Fprintf(formatter.Writer, "no versions for %s %s\n", kind, id)
		return nil
	}
	for _, v := range versions {
		if v.Label != "" {
			fmt.Fprintf(formatter.Writer, "%4d  %s  %s\n", v.Seq, v.Fingerprint[:12], v.Label)
		} else {
			fmt.Fprintf(formatter.Writer, "%4d  %s\n", v.Seq, v.Fingerprint[:12])
		}
		formatter.VerboseLog("%s", formatVersionPayload(v))
	}
	return nil
}

func newVersionsRecordCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, label string

	cmd := &cobra.Command{
		Use:   "record <project-id>",
		Short: "Record the current project content as a new generation",
		Long: `Record a project-level version: the project's canonical document is
stored in the version log under kind "project", fingerprinted, and
sequenced. Old generations past the retention bound are dropped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionsRecord(rootOpts, args[0], dbPath, label, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	cmd.Flags().StringVar(&label, "label", "", "optional version label")
	return cmd
}

func runVersionsRecord(opts *RootOptions, projectID, dbPath, label string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	a, err := openArchive(dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.LoadProject(cmd.Context(), projectID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load project", err)
	}

	v, err := a.AppendVersion(cmd.Context(), "project", projectID, label, b.CanonicalMap())
	if err != nil {
		return WrapExitError(ExitCommandError, "record version", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(v)
	}
	fmt.Fprintf(formatter.Writer, "recorded %s seq %d (%s)\n", projectID, v.Seq, v.Fingerprint[:12])
	return nil
}

// formatVersionPayload pretty-prints a version payload for verbose output.
func formatVersionPayload(v archive.Version) string {
	var buf map[string]any
	if err := json.Unmarshal([]byte(v.Payload), &buf); err != nil {
		return v.Payload
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return v.Payload
	}
	return string(out)
}
