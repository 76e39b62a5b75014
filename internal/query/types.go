// Package query compiles declarative entity lookups into parameterized
// SQLite over the archive's extracted columns.
//
// Queries are scoped to one project and one entity kind. Every compiled
// statement carries a deterministic ORDER BY so results are stable across
// runs, and every value travels as a bind parameter, never interpolated.
package query

import "fmt"

// Predicate is a filter condition on an extracted column.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in the
// compiler. Predicates in a Select are conjoined: all must hold.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose column equals a literal value.
// Value must be a string, int, int64, or bool. Floats and nil are
// rejected at validation time.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Contains matches rows whose text column contains a substring.
// The substring is matched case-sensitively via LIKE with escaping, so
// user input containing % or _ is treated literally.
type Contains struct {
	Field     string
	Substring string
}

func (Contains) predicateNode() {}

// Between matches rows whose integer column lies in [Min, Max] inclusive.
type Between struct {
	Field string
	Min   int64
	Max   int64
}

func (Between) predicateNode() {}

// Select is a declarative lookup over one entity kind.
//
// Semantics:
//
//	SELECT doc FROM <kind table>
//	WHERE project_id = ? AND <predicates...>
//	ORDER BY <order key>, id
//	[LIMIT ?]
//
// OrderBy names an extracted column; empty means the kind's natural order
// (position for shots, id for everything else). Limit 0 means no limit.
type Select struct {
	Kind    string
	Where   []Predicate
	OrderBy string
	Limit   int
}

// kindSpec describes the queryable surface of one entity table.
type kindSpec struct {
	table        string
	columns      map[string]colType
	naturalOrder string
}

type colType int

const (
	colText colType = iota
	colInt
)

// kinds maps entity kind names to their archive tables and extracted
// columns. Only extracted columns are queryable; everything else lives in
// the doc JSON and is out of reach of the compiler.
var kinds = map[string]kindSpec{
	"shot": {
		table: "shots",
		columns: map[string]colType{
			"id":          colText,
			"title":       colText,
			"position":    colInt,
			"duration_ms": colInt,
		},
		naturalOrder: "position",
	},
	"asset": {
		table: "assets",
		columns: map[string]colType{
			"id":   colText,
			"kind": colText,
			"name": colText,
		},
		naturalOrder: "id",
	},
	"character": {
		table: "characters",
		columns: map[string]colType{
			"id":   colText,
			"name": colText,
			"role": colText,
		},
		naturalOrder: "id",
	},
	"world": {
		table: "worlds",
		columns: map[string]colType{
			"id":   colText,
			"name": colText,
		},
		naturalOrder: "id",
	},
	"story": {
		table: "stories",
		columns: map[string]colType{
			"id":    colText,
			"title": colText,
		},
		naturalOrder: "id",
	},
}

// Kinds returns the queryable entity kind names in sorted order.
func Kinds() []string {
	return []string{"asset", "character", "shot", "story", "world"}
}

// Validate checks a Select against the queryable surface: known kind,
// known columns, value types the compiler can bind, sane limit.
func Validate(sel Select) error {
	spec, ok := kinds[sel.Kind]
	if !ok {
		return fmt.Errorf("unknown entity kind %q", sel.Kind)
	}

	if sel.Limit < 0 {
		return fmt.Errorf("negative limit %d", sel.Limit)
	}

	if sel.OrderBy != "" {
		if _, ok := spec.columns[sel.OrderBy]; !ok {
			return fmt.Errorf("kind %q has no queryable column %q", sel.Kind, sel.OrderBy)
		}
	}

	for _, p := range sel.Where {
		if err := validatePredicate(spec, p); err != nil {
			return err
		}
	}
	return nil
}

func validatePredicate(spec kindSpec, p Predicate) error {
	switch pred := p.(type) {
	case Equals:
		ct, ok := spec.columns[pred.Field]
		if !ok {
			return fmt.Errorf("no queryable column %q", pred.Field)
		}
		switch pred.Value.(type) {
		case string:
			if ct != colText {
				return fmt.Errorf("column %q is integer, got string value", pred.Field)
			}
		case int, int64:
			if ct != colInt {
				return fmt.Errorf("column %q is text, got integer value", pred.Field)
			}
		case bool:
		case nil:
			return fmt.Errorf("column %q compared to nil", pred.Field)
		default:
			return fmt.Errorf("unsupported value type %T for column %q", pred.Value, pred.Field)
		}
	case Contains:
		ct, ok := spec.columns[pred.Field]
		if !ok {
			return fmt.Errorf("no queryable column %q", pred.Field)
		}
		if ct != colText {
			return fmt.Errorf("contains requires a text column, %q is integer", pred.Field)
		}
	case Between:
		ct, ok := spec.columns[pred.Field]
		if !ok {
			return fmt.Errorf("no queryable column %q", pred.Field)
		}
		if ct != colInt {
			return fmt.Errorf("between requires an integer column, %q is text", pred.Field)
		}
		if pred.Min > pred.Max {
			return fmt.Errorf("between on %q: min %d exceeds max %d", pred.Field, pred.Min, pred.Max)
		}
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unsupported predicate type %T", p)
	}
	return nil
}
