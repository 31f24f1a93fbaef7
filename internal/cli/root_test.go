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

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "lifelinesctl", cmd.Use)
	for _, path := range [][]string{
		{"login"}, {"logout"}, {"status"}, {"sync"}, {"run"}, {"queue"},
		{"projects", "list"}, {"projects", "create"}, {"projects", "publish"}, {"projects", "assess"},
		{"bid", "submit"}, {"bid", "award"}, {"bid", "license"},
		{"resources", "reserve"}, {"resources", "release"}, {"pack", "export"}, {"pack", "import"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	f := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "text", f.DefValue)
	require.NotNil(t, cmd.PersistentFlags().Lookup("api-url"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("local-db"))
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"status", "--format", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// run executes one lifelinesctl invocation against an unreachable server.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api-url", "http://127.0.0.1:1/api", "--local-db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestOfflineWorkflow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "local.db")

	_, err := run(t, db, "projects", "create", "--title", "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := run(t, db, "login", "official@example.com", "official123")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")

	_, err = run(t, db, "login", "official@example.com", "bad")
	require.Error(t, err)

	out, err = run(t, db, "projects", "create", "--title", "Field Clinic", "--lat", "25.28", "--lng", "51.53")
	require.NoError(t, err)
	assert.Contains(t, out, "(pending sync)")

	out, err = run(t, db, "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Field Clinic")

	out, err = run(t, db, "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "POST /projects")

	out, err = run(t, db, "--format", "json", "status")
	require.NoError(t, err)
	var st struct {
		Online  bool  `json:"online"`
		Pending int64 `json:"pending"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.False(t, st.Online)
	assert.EqualValues(t, 1, st.Pending)

	_, err = run(t, db, "sync")
	require.Error(t, err)

	pack := filepath.Join(dir, "pack.json")
	_, err = run(t, db, "pack", "export", pack)
	require.NoError(t, err)
	info, err := os.Stat(pack)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	other := filepath.Join(dir, "other.db")
	out, err = run(t, other, "pack", "import", pack)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1")

	_, err = run(t, db, "logout")
	require.NoError(t, err)
	_, err = run(t, db, "projects", "list")
	require.Error(t, err)
}
