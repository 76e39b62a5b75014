package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calliope-studio/calliope/internal/query"
)

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath   string
		wheres   []string
		contains []string
		betweens []string
		orderBy  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "find <project-id> <kind>",
		Short: "Query archived entities of a project",
		Long: fmt.Sprintf(`Query entities of an archived project. Kind is one of: %s.

Filters combine with AND. Results are ordered deterministically; pass
--order-by to sort on a different column.

  calliope find p1 shot --where title=opening
  calliope find p1 shot --between duration_ms=100,900 --limit 10
  calliope find p1 asset --contains name=forest --order-by name`, strings.Join(query.Kinds(), ", ")),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := buildSelect(args[1], wheres, contains, betweens, orderBy, limit)
			if err != nil {
				return WrapExitError(ExitCommandError, "build query", err)
			}
			return runFind(rootOpts, args[0], dbPath, sel, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "calliope.db", "archive database path")
	cmd.Flags().StringArrayVar(&wheres, "where", nil, "equality filter, column=value (repeatable)")
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "substring filter, column=text (repeatable)")
	cmd.Flags().StringArrayVar(&betweens, "between", nil, "range filter, column=min,max (repeatable)")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "order results by column")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 = no limit)")
	return cmd
}

// buildSelect turns flag values into a validated query. Equality values
// that parse as integers filter integer columns; everything else is text.
func buildSelect(kind string, wheres, contains, betweens []string, orderBy string, limit int) (query.Select, error) {
	sel := query.Select{Kind: kind, OrderBy: orderBy, Limit: limit}

	for _, w := range wheres {
		field, value, err := splitFilter("where", w)
		if err != nil {
			return query.Select{}, err
		}
		if n, perr := strconv.ParseInt(value, 10, 64); perr == nil {
			sel.Where = append(sel.Where, query.Equals{Field: field, Value: n})
		} else {
			sel.Where = append(sel.Where, query.Equals{Field: field, Value: value})
		}
	}
	for _, c := range contains {
		field, value, err := splitFilter("contains", c)
		if err != nil {
			return query.Select{}, err
		}
		sel.Where = append(sel.Where, query.Contains{Field: field, Substring: value})
	}
	for _, b := range betweens {
		field, value, err := splitFilter("between", b)
		if err != nil {
			return query.Select{}, err
		}
		minStr, maxStr, ok := strings.Cut(value, ",")
		if !ok {
			return query.Select{}, fmt.Errorf("between filter %q: want column=min,max", b)
		}
		min, err := strconv.ParseInt(strings.TrimSpace(minStr), 10, 64)
		if err != nil {
			return query.Select{}, fmt.Errorf("between filter %q: bad min: %w", b, err)
		}
		max, err := strconv.ParseInt(strings.TrimSpace(maxStr), 10, 64)
		if err != nil {
			return query.Select{}, fmt.Errorf("between filter %q: bad max: %w", b, err)
		}
		sel.Where = append(sel.Where, query.Between{Field: field, Min: min, Max: max})
	}

	if err := query.Validate(sel); err != nil {
		return query.Select{}, err
	}
	return sel, nil
}

func splitFilter(flag, raw string) (string, string, error) {
	field, value, ok := strings.Cut(raw, "=")
	if !ok || field == "" {
		return "", "", fmt.Errorf("%s filter %q: want column=value", flag, raw)
	}
	return field, value, nil
}

func runFind(opts *RootOptions, projectID, dbPath string, sel query.Select, cmd *cobra.Command) error {
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

	docs, err := query.Find(cmd.Context(), a, projectID, sel)
	if err != nil {
		return WrapExitError(ExitCommandError, "run query", err)
	}

	formatter.VerboseLog("%d result(s)", len(docs))
	if formatter.Format == "json" {
		return formatter.Success(docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(formatter.Writer, "no matches")
		return nil
	}
	for _, doc := range docs {
		line, err := json.Marshal(doc)
		if err != nil {
			return WrapExitError(ExitCommandError, "encode result", err)
		}
		fmt.Fprintln(formatter.Writer, string(line))
	}
	return nil
}
