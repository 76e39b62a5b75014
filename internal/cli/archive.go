package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calliope-studio/calliope/internal/archive"
	"github.com/calliope-studio/calliope/internal/branch"
	"github.com/calliope-studio/calliope/internal/entity"
	"github.com/calliope-studio/calliope/internal/schema"
)

// openArchive opens the archive at path, translating failures into
// command-level exit errors.
func openArchive(path string) (*archive.Archive, error) {
	a, err := archive.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open archive %s", path), err)
	}
	return a, nil
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <document>",
		Short: "Validate a project document and store it in the archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], dbPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	return cmd
}

func runImport(opts *RootOptions, docPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read document", err)
	}

	b, verrs, err := schema.Import(data, schema.DetectFormat(data))
	if err != nil {
		return WrapExitError(ExitCommandError, "parse document", err)
	}
	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	a, err := openArchive(dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.SaveProject(cmd.Context(), b, 0); err != nil {
		return WrapExitError(ExitCommandError, "save project", err)
	}

	formatter.VerboseLog("Imported %d shots, %d assets, %d characters",
		len(b.Shots), len(b.Assets), len(b.Characters))
	return formatter.Success(fmt.Sprintf("imported project %s (%s)", b.Project.ID, b.Project.Name))
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, outPath string

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export an archived project as canonical JSON",
		Long: `Export a project bundle as canonical JSON.

Canonical output is deterministic: two exports of identical content are
byte-identical, and the printed fingerprint identifies the content.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], dbPath, outPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write document to file instead of stdout")
	return cmd
}

func runExport(opts *RootOptions, projectID, dbPath, outPath string, cmd *cobra.Command) error {
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

	export, err := branch.ExportBundle(b)
	if err != nil {
		return WrapExitError(ExitCommandError, "export project", err)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, export.Data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write export", err)
		}
		return formatter.Success(fmt.Sprintf("exported %s (fingerprint %s)", outPath, export.Fingerprint))
	}

	fmt.Fprintln(formatter.Writer, string(export.Data))
	formatter.VerboseLog("fingerprint %s", export.Fingerprint)
	return nil
}

// NewBranchCommand creates the branch command.
func NewBranchCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "branch <project-id> <name>",
		Short: "Fork an archived project into a new branch",
		Long: `Fork a project. The branch gets fresh entity IDs with internal
references remapped, and records the parent's ID plus a fingerprint of
the parent's content at fork time.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranch(rootOpts, args[0], args[1], dbPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	return cmd
}

func runBranch(opts *RootOptions, projectID, name, dbPath string, cmd *cobra.Command) error {
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

	parent, err := a.LoadProject(cmd.Context(), projectID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load project", err)
	}

	res, err := branch.Create(parent, name, entity.UUIDv7Generator{}, time.Now().UnixMilli())
	if err != nil {
		return WrapExitError(ExitCommandError, "create branch", err)
	}

	if err := a.SaveProject(cmd.Context(), res.Bundle, 0); err != nil {
		return WrapExitError(ExitCommandError, "save branch", err)
	}

	formatter.VerboseLog("parent fingerprint %s", res.ParentFingerprint)
	formatter.VerboseLog("lineage fingerprint %s", res.LineageFingerprint)
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"project_id":          res.Bundle.Project.ID,
			"name":                name,
			"parent_id":           projectID,
			"parent_fingerprint":  res.ParentFingerprint,
			"lineage_fingerprint": res.LineageFingerprint,
		})
	}
	fmt.Fprintf(formatter.Writer, "branched %s -> %s (%s)\n", projectID, res.Bundle.Project.ID, name)
	return nil
}

// NewProjectsCommand creates the projects command.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List archived projects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(rootOpts, dbPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	return cmd
}

func runProjects(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
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

	projects, err := a.ListProjects(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "list projects", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(projects)
	}
	if len(projects) == 0 {
		fmt.Fprintln(formatter.Writer, "no projects")
		return nil
	}
	for _, p := range projects {
		if p.ParentID != "" {
			fmt.Fprintf(formatter.Writer, "%s  %s (branch of %s)\n", p.ID, p.Name, p.ParentID)
		} else {
			fmt.Fprintf(formatter.Writer, "%s  %s\n", p.ID, p.Name)
		}
	}
	return nil
}
