package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calliope-studio/calliope/internal/archive"
)

func recordVersion(t *testing.T, dbPath, label string) {
	t.Helper()
	cmd := NewVersionsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	args := []string{"record", "p1", "--db", dbPath}
	if label != "" {
		args = append(args, "--label", label)
	}
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
}

func TestVersionsRecordAndList(t *testing.T) {
	dbPath := importDoc(t)
	recordVersion(t, dbPath, "first cut")
	recordVersion(t, dbPath, "")

	buf := &bytes.Buffer{}
	cmd := NewVersionsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list", "project", "p1", "--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "first cut")
	assert.Contains(t, buf.String(), "   1  ")
	assert.Contains(t, buf.String(), "   2  ")
}

func TestVersionsListJSON(t *testing.T) {
	dbPath := importDoc(t)
	recordVersion(t, dbPath, "v1")

	buf := &bytes.Buffer{}
	cmd := NewVersionsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list", "project", "p1", "--db", dbPath})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string            `json:"status"`
		Data   []archive.Version `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Data[0].Seq)
	assert.Equal(t, "v1", resp.Data[0].Label)
	assert.Len(t, resp.Data[0].Fingerprint, 64)
}

func TestVersionsRecord_IdenticalContentSameFingerprint(t *testing.T) {
	dbPath := importDoc(t)
	recordVersion(t, dbPath, "")
	recordVersion(t, dbPath, "")

	buf := &bytes.Buffer{}
	cmd := NewVersionsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list", "project", "p1", "--db", dbPath})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []archive.Version `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, resp.Data[0].Fingerprint, resp.Data[1].Fingerprint)
}

func TestVersionsList_Empty(t *testing.T) {
	dbPath := importDoc(t)

	buf := &bytes.Buffer{}
	cmd := NewVersionsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list", "project", "p1", "--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no versions for project p1")
}

func TestVersionsRecord_UnknownProject(t *testing.T) {
	dbPath := importDoc(t)

	cmd := NewVersionsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"record", "ghost", "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
