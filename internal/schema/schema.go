// Package schema validates imported project documents.
//
// Validation runs in two layers. The CUE schema (schema.cue) checks shape:
// required fields, field types, closed structs, enumerated asset kinds.
// The structural pass (validate.go) checks relationships the type system
// cannot express: duplicate IDs, timeline position contiguity, dangling
// references. Both layers collect every violation they find rather than
// stopping at the first.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/calliope-studio/calliope/internal/entity"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
	schemaErr   error
)

// bundleSchema compiles the embedded schema once and caches the #Bundle
// definition.
func bundleSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile embedded schema: %w", err)
			return
		}
		schemaValue = v.LookupPath(cue.ParsePath("#Bundle"))
		if err := schemaValue.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Bundle: %w", err)
		}
	})
	return schemaValue, schemaErr
}

// Format identifies the serialization of an imported document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat guesses the document format from its leading byte. JSON
// documents open with an object brace; anything else is treated as YAML.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Import decodes and validates a project document. On success the decoded
// bundle is returned with no validation errors. Shape and structural
// violations are collected into the ValidationError slice; the error
// return is reserved for document-level failures (unreadable input,
// broken embedded schema).
func Import(data []byte, format Format) (entity.Bundle, []ValidationError, error) {
	jsonData, err := toJSON(data, format)
	if err != nil {
		return entity.Bundle{}, nil, err
	}

	verrs, err := validateShape(jsonData)
	if err != nil {
		return entity.Bundle{}, nil, err
	}

	var b entity.Bundle
	if decodeErr := strictUnmarshal(jsonData, &b); decodeErr != nil {
		// Shape errors explain the decode failure; without them the
		// document is malformed in a way the schema missed.
		if len(verrs) == 0 {
			return entity.Bundle{}, nil, fmt.Errorf("decode document: %w", decodeErr)
		}
		return entity.Bundle{}, verrs, nil
	}

	verrs = append(verrs, ValidateStructure(b)...)
	if len(verrs) > 0 {
		return entity.Bundle{}, verrs, nil
	}
	return b, nil, nil
}

// toJSON normalizes the document to JSON bytes. YAML documents are decoded
// strictly and re-encoded; JSON passes through untouched.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatJSON {
		return data, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml document: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml document: %w", err)
	}
	return out, nil
}

// validateShape unifies the document with the #Bundle schema and collects
// every constraint violation.
func validateShape(jsonData []byte) ([]ValidationError, error) {
	sch, err := bundleSchema()
	if err != nil {
		return nil, err
	}

	ctx := sch.Context()
	doc := ctx.CompileBytes(jsonData, cue.Filename("document"))
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	unified := sch.Unify(doc)
	err = unified.Validate(cue.Concrete(true), cue.Final())
	if err == nil {
		return nil, nil
	}

	var verrs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Field:   cuePath(e),
			Message: e.Error(),
			Code:    ErrShape,
		}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			ve.Line = positions[0].Line()
		}
		verrs = append(verrs, ve)
	}
	return verrs, nil
}

func cuePath(e cueerrors.Error) string {
	path := e.Path()
	if len(path) == 0 {
		return "document"
	}
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}

// strictUnmarshal decodes JSON rejecting fields the bundle type does not
// know about.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
