package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marketplace/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errNoDatabase = errors.New("no database in tests")

func testEnv(t *testing.T, args ...string) (*env, *bytes.Buffer, *int) {
	t.Helper()
	out := &bytes.Buffer{}
	opened := 0
	return &env{
		log:  zap.NewNop(),
		out:  out,
		path: t.TempDir(),
		args: args,
		migrator: func() (*migration.Migrator, error) {
			opened++
			return nil, errNoDatabase
		},
	}, out, &opened
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"sideways"}},
		{"step without count", []string{"step"}},
		{"step with a word", []string{"step", "two"}},
		{"goto negative", []string{"goto", "-1"}},
		{"force without version", []string{"force"}},
		{"create without name", []string{"create"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, opened := testEnv(t, tt.args...)

			assert.ErrorIs(t, run(e), errUsage)
			assert.Zero(t, *opened)
		})
	}
}

func TestRun_DatabaseCommandsOpenTheMigrator(t *testing.T) {
	for _, args := range [][]string{{"up"}, {"down"}, {"step", "-1"}, {"goto", "3"}, {"version"}, {"status"}, {"force", "2"}} {
		e, _, opened := testEnv(t, args...)

		assert.ErrorIs(t, run(e), errNoDatabase, args[0])
		assert.Equal(t, 1, *opened, args[0])
	}
}

func TestRun_CreateAndList(t *testing.T) {
	e, _, opened := testEnv(t, "create", "add payout index", "speeds", "up", "payouts")
	dir := e.path
	require.NoError(t, run(e))

	ups, err := filepath.Glob(filepath.Join(dir, "*_add_payout_index.up.sql"))
	require.NoError(t, err)
	require.Len(t, ups, 1)
	up, err := os.ReadFile(ups[0])
	require.NoError(t, err)
	assert.Contains(t, string(up), "speeds up payouts")

	list, out, _ := testEnv(t, "list")
	list.path = dir
	require.NoError(t, run(list))
	assert.Contains(t, out.String(), "_add_payout_index")
	assert.Zero(t, *opened)
}

func TestRun_ListEmptyDirectory(t *testing.T) {
	e, out, _ := testEnv(t, "list")
	e.path = filepath.Join(e.path, "missing")

	require.NoError(t, run(e))
	assert.Empty(t, out.String())
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, cmd := range commands {
		assert.Contains(t, buf.String(), cmd.usage)
	}
}
