package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calliope-studio/calliope/internal/archive"
)

// Compile converts a validated Select into parameterized SQL.
// Returns (sql, params, error).
//
// Every statement includes ORDER BY with an id tiebreaker so results are
// deterministic, and every value is a ? placeholder.
func Compile(projectID string, sel Select) (string, []any, error) {
	if err := Validate(sel); err != nil {
		return "", nil, err
	}
	spec := kinds[sel.Kind]

	var b strings.Builder
	params := []any{projectID}

	fmt.Fprintf(&b, "SELECT doc FROM %s WHERE project_id = ?", spec.table)

	for _, p := range sel.Where {
		frag, fragParams := compilePredicate(p)
		b.WriteString(" AND ")
		b.WriteString(frag)
		params = append(params, fragParams...)
	}

	orderKey := sel.OrderBy
	if orderKey == "" {
		orderKey = spec.naturalOrder
	}
	// COLLATE BINARY pins text ordering across SQLite builds; the id
	// tiebreaker makes the order total.
	if spec.columns[orderKey] == colText {
		fmt.Fprintf(&b, " ORDER BY %s COLLATE BINARY", orderKey)
	} else {
		fmt.Fprintf(&b, " ORDER BY %s", orderKey)
	}
	if orderKey != "id" {
		b.WriteString(", id COLLATE BINARY")
	}

	if sel.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, sel.Limit)
	}

	return b.String(), params, nil
}

func compilePredicate(p Predicate) (string, []any) {
	switch pred := p.(type) {
	case Equals:
		return fmt.Sprintf("%s = ?", pred.Field), []any{pred.Value}
	case Contains:
		pattern := "%" + escapeLike(pred.Substring) + "%"
		return fmt.Sprintf("%s LIKE ? ESCAPE '\\'", pred.Field), []any{pattern}
	case Between:
		return fmt.Sprintf("%s BETWEEN ? AND ?", pred.Field), []any{pred.Min, pred.Max}
	default:
		// Validate rejects unknown predicate types before compilation.
		panic(fmt.Sprintf("unreachable predicate type %T", p))
	}
}

// escapeLike neutralizes LIKE metacharacters in user-supplied substrings.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Find compiles and executes a Select against the archive, returning the
// matching entity documents as decoded JSON objects.
func Find(ctx context.Context, a *archive.Archive, projectID string, sel Select) ([]map[string]any, error) {
	sqlText, params, err := Compile(projectID, sel)
	if err != nil {
		return nil, err
	}

	rows, err := a.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("decode entity doc: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return out, nil
}
