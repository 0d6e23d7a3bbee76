package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "todo-server", cmd.Use)
	assert.NotEmpty(t, cmd.Version)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "version"}, names)

	for _, flag := range []string{"config", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "todo-server version "+Version)
}

func TestMigrateSQLite(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	dbPath := filepath.Join(dir, "todo.db")
	require.NoError(t, os.WriteFile("todo.yaml", []byte("storage:\n  driver: sqlite\n  url: "+dbPath+"\n"), 0o644))
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestMigrateRejectsBadConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "mongo")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate"})
	assert.ErrorContains(t, cmd.Execute(), "unknown storage driver")
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
