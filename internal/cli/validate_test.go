package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocJSON = `{
	"project": {"id": "p1", "name": "reel", "created_at_ms": 1700000000000},
	"shots": [
		{"id": "s1", "title": "opening", "duration_ms": 2000, "position": 0, "asset_ids": ["a1"]},
		{"id": "s2", "title": "closing", "duration_ms": 3000, "position": 1}
	],
	"assets": [{"id": "a1", "kind": "image", "name": "skyline"}],
	"selected_shot_id": "s1"
}`

const invalidDocJSON = `{
	"project": {"id": "p1", "name": "reel", "created_at_ms": 1},
	"shots": [
		{"id": "s1", "title": "a", "duration_ms": 0, "position": 0},
		{"id": "s1", "title": "b", "duration_ms": 0, "position": 5}
	]
}`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateValidDocument(t *testing.T) {
	path := writeDoc(t, "reel.json", validDocJSON)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Document valid")
}

func TestValidateValidDocumentJSON(t *testing.T) {
	path := writeDoc(t, "reel.json", validDocJSON)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateValidYAMLDocument(t *testing.T) {
	doc := `
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
	path := writeDoc(t, "reel.yaml", doc)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Document valid")
}

func TestValidateInvalidDocument(t *testing.T) {
	path := writeDoc(t, "bad.json", invalidDocJSON)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, buf.String(), "✗ Validation failed")
	assert.Contains(t, buf.String(), "E201", "duplicate shot id must be reported")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateInvalidDocumentJSON(t *testing.T) {
	path := writeDoc(t, "bad.json", invalidDocJSON)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
}

func TestValidateMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/reel.json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateVerboseOutput(t *testing.T) {
	path := writeDoc(t, "reel.json", validDocJSON)

	stdoutBuf := &bytes.Buffer{}
	stderrBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(stdoutBuf)
	cmd.SetErr(stderrBuf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderrBuf.String(), "Detected json document")
}
