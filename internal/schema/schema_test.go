package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calliope-studio/calliope/internal/entity"
)

const validJSON = `{
	"project": {"id": "p1", "name": "reel", "created_at_ms": 1700000000000},
	"shots": [
		{"id": "s1", "title": "opening", "duration_ms": 2000, "position": 0, "asset_ids": ["a1"]},
		{"id": "s2", "title": "closing", "duration_ms": 3000, "position": 1}
	],
	"assets": [{"id": "a1", "kind": "image", "name": "skyline"}],
	"selected_shot_id": "s1"
}`

const validYAML = `
project:
  id: p1
  name: reel
  created_at_ms: 1700000000000
shots:
  - id: s1
    title: opening
    duration_ms: 2000
    position: 0
`

func codes(verrs []ValidationError) []string {
	out := make([]string, len(verrs))
	for i, ve := range verrs {
		out[i] = ve.Code
	}
	return out
}

func TestImport_ValidJSON(t *testing.T) {
	b, verrs, err := Import([]byte(validJSON), FormatJSON)
	require.NoError(t, err)
	require.Empty(t, verrs)

	assert.Equal(t, "p1", b.Project.ID)
	require.Len(t, b.Shots, 2)
	assert.Equal(t, int64(2000), b.Shots[0].DurationMs)
	assert.Equal(t, "s1", b.SelectedShotID)
}

func TestImport_ValidYAML(t *testing.T) {
	b, verrs, err := Import([]byte(validYAML), FormatYAML)
	require.NoError(t, err)
	require.Empty(t, verrs)
	assert.Equal(t, "reel", b.Project.Name)
	require.Len(t, b.Shots, 1)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat([]byte("  \n{\"project\": {}}")))
	assert.Equal(t, FormatYAML, DetectFormat([]byte("project:\n  id: p1\n")))
}

func TestImport_MissingRequiredField(t *testing.T) {
	doc := `{"project": {"id": "p1", "created_at_ms": 1}}`
	_, verrs, err := Import([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.NotEmpty(t, verrs, "missing project name must be reported")
	assert.Contains(t, codes(verrs), ErrShape)
}

func TestImport_FloatDurationRejected(t *testing.T) {
	doc := `{
		"project": {"id": "p1", "name": "reel", "created_at_ms": 1},
		"shots": [{"id": "s1", "title": "x", "duration_ms": 1.5, "position": 0}]
	}`
	_, verrs, err := Import([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, codes(verrs), ErrShape)
}

func TestImport_UnknownAssetKindRejected(t *testing.T) {
	doc := `{
		"project": {"id": "p1", "name": "reel", "created_at_ms": 1},
		"assets": [{"id": "a1", "kind": "hologram", "name": "x"}]
	}`
	_, verrs, err := Import([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, codes(verrs), ErrShape)
}

func TestImport_UnknownFieldRejected(t *testing.T) {
	doc := `{
		"project": {"id": "p1", "name": "reel", "created_at_ms": 1},
		"budget": 100000
	}`
	_, verrs, err := Import([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, codes(verrs), ErrShape)
}

func TestImport_CollectsStructuralErrors(t *testing.T) {
	doc := `{
		"project": {"id": "p1", "name": "reel", "created_at_ms": 1},
		"shots": [
			{"id": "s1", "title": "a", "duration_ms": 0, "position": 0, "asset_ids": ["ghost"]},
			{"id": "s1", "title": "b", "duration_ms": 0, "position": 5}
		],
		"selected_shot_id": "s9"
	}`
	_, verrs, err := Import([]byte(doc), FormatJSON)
	require.NoError(t, err)

	got := codes(verrs)
	assert.Contains(t, got, ErrDuplicateID, "duplicate shot id")
	assert.Contains(t, got, ErrPositionGap, "position 5 where 1 expected")
	assert.Contains(t, got, ErrUnknownAsset, "dangling asset reference")
	assert.Contains(t, got, ErrUnknownShot, "dangling selection")
	assert.GreaterOrEqual(t, len(verrs), 4, "all violations are collected, not just the first")
}

func TestImport_MalformedInput(t *testing.T) {
	_, _, err := Import([]byte(`{"project": `), FormatJSON)
	require.Error(t, err)

	_, _, err = Import([]byte("\t- broken: [yaml"), FormatYAML)
	require.Error(t, err)
}

func TestValidateStructure_DanglingStoryReferences(t *testing.T) {
	b := entity.Bundle{
		Project: entity.Project{ID: "p1", Name: "reel", CreatedAtMs: 1},
		Stories: []entity.Story{
			{ID: "st1", Title: "The Drop", WorldID: "w9", CharacterIDs: []string{"c9"}},
		},
	}
	verrs := ValidateStructure(b)
	got := codes(verrs)
	assert.Contains(t, got, ErrUnknownWorld)
	assert.Contains(t, got, ErrUnknownCharacter)
}

func TestValidateStructure_ValidBundle(t *testing.T) {
	b := entity.Bundle{
		Project: entity.Project{ID: "p1", Name: "reel", CreatedAtMs: 1},
		Shots: []entity.Shot{
			{ID: "s1", Title: "a", Position: 0},
			{ID: "s2", Title: "b", Position: 1},
		},
	}
	assert.Empty(t, ValidateStructure(b))
}

func TestValidationError_Format(t *testing.T) {
	e := ValidationError{Field: "shots[0].id", Message: "duplicate", Code: ErrDuplicateID}
	assert.Equal(t, "[E201] shots[0].id: duplicate", e.Error())

	e.Line = 7
	assert.Equal(t, "[E201] line 7: shots[0].id: duplicate", e.Error())
}
