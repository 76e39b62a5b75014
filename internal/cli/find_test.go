package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calliope-studio/calliope/internal/query"
)

func TestBuildSelect(t *testing.T) {
	sel, err := buildSelect("shot",
		[]string{"title=opening", "position=0"},
		[]string{"title=open"},
		[]string{"duration_ms=100,900"},
		"position", 5)
	require.NoError(t, err)

	require.Len(t, sel.Where, 4)
	assert.Equal(t, query.Equals{Field: "title", Value: "opening"}, sel.Where[0])
	assert.Equal(t, query.Equals{Field: "position", Value: int64(0)}, sel.Where[1])
	assert.Equal(t, query.Contains{Field: "title", Substring: "open"}, sel.Where[2])
	assert.Equal(t, query.Between{Field: "duration_ms", Min: 100, Max: 900}, sel.Where[3])
	assert.Equal(t, "position", sel.OrderBy)
	assert.Equal(t, 5, sel.Limit)
}

func TestBuildSelect_Errors(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		wheres   []string
		betweens []string
		wantErr  string
	}{
		{"unknown kind", "scene", nil, nil, "unknown entity kind"},
		{"malformed where", "shot", []string{"title"}, nil, "want column=value"},
		{"empty column", "shot", []string{"=x"}, nil, "want column=value"},
		{"malformed between", "shot", nil, []string{"duration_ms=100"}, "want column=min,max"},
		{"non-integer between", "shot", nil, []string{"duration_ms=low,900"}, "bad min"},
		{"unknown column", "shot", []string{"director=me"}, nil, "no queryable column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildSelect(tt.kind, tt.wheres, nil, tt.betweens, "", 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindCommand_EqualityFilter(t *testing.T) {
	dbPath := importDoc(t)

	buf := &bytes.Buffer{}
	cmd := NewFindCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"p1", "shot", "--db", dbPath, "--where", "title=opening"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "s1", resp.Data[0]["id"])
}

func TestFindCommand_TimelineOrder(t *testing.T) {
	dbPath := importDoc(t)

	buf := &bytes.Buffer{}
	cmd := NewFindCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"p1", "shot", "--db", dbPath})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "opening", resp.Data[0]["title"])
	assert.Equal(t, "closing", resp.Data[1]["title"])
}

func TestFindCommand_BetweenAndLimit(t *testing.T) {
	dbPath := importDoc(t)

	buf := &bytes.Buffer{}
	cmd := NewFindCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"p1", "shot", "--db", dbPath,
		"--between", "duration_ms=2500,5000", "--limit", "1"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "closing", resp.Data[0]["title"])
}

func TestFindCommand_NoMatchesText(t *testing.T) {
	dbPath := importDoc(t)

	buf := &bytes.Buffer{}
	cmd := NewFindCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"p1", "shot", "--db", dbPath, "--where", "title=ghost"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no matches")
}

func TestFindCommand_BadFilterFailsBeforeArchive(t *testing.T) {
	cmd := NewFindCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"p1", "shot", "--db", "/nonexistent/dir/studio.db", "--where", "bogus"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build query")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
