package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/plannersync/pkg/cli"
	"github.com/harrisonrobin/plannersync/pkg/config"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := cli.Execute(context.Background(), append([]string{"--no-log"}, args...), nil, &stdout, &stderr)
	return stdout.String(), err
}

func TestSyncRejectsUnknownMode(t *testing.T) {
	// No config or credentials exist: the mode check must come first.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := run(t, "sync", "merge")

	assert.ErrorIs(t, err, model.ErrUnknownMode)
}

func TestSyncWithoutCredentialsFailsWithAuthError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := run(t, "sync", "compare")

	assert.ErrorIs(t, err, model.ErrAuthUnavailable)
}

func TestConfigSetMirror(t *testing.T) {
	tests := map[string]struct {
		args       []string
		expErr     bool
		expBackend string
		expSheetID string
		expSheet   string
	}{
		"Selecting sheets with a spreadsheet should be saved.": {
			args:       []string{"--backend", "sheets", "--spreadsheet-id", "abc", "--sheet", "Planner"},
			expBackend: config.BackendSheets,
			expSheetID: "abc",
			expSheet:   "Planner",
		},
		"Selecting sheets without a spreadsheet should fail.": {
			args:   []string{"--backend", "sheets"},
			expErr: true,
		},
		"An unknown backend should fail.": {
			args:   []string{"--backend", "excel"},
			expErr: true,
		},
		"Selecting sqlite should keep the default sheet.": {
			args:       []string{"--backend", "sqlite"},
			expBackend: config.BackendSQLite,
			expSheet:   "Tasks",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			dir := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", dir)
			path := filepath.Join(dir, "custom.yaml")

			_, err := run(t, append([]string{"--config", path, "config", "set-mirror"}, test.args...)...)

			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(err)

			cfg, err := config.Load(path)
			require.NoError(err)
			assert.Equal(test.expBackend, cfg.Mirror.Backend)
			assert.Equal(test.expSheetID, cfg.Mirror.SpreadsheetID)
			assert.Equal(test.expSheet, cfg.Mirror.Sheet)
		})
	}
}

func TestConfigSetMirrorDoesNotPersistEnvOverrides(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PLANNERSYNC_GRAPH_CLIENT_SECRET", "s3cr3t-from-env")
	t.Setenv("PLANNERSYNC_FETCH_CONCURRENCY", "9")
	path := filepath.Join(dir, "config.yaml")

	_, err := run(t, "--config", path, "config", "set-mirror", "--backend", "sqlite")
	require.NoError(err)

	b, err := os.ReadFile(path)
	require.NoError(err)
	assert.NotContains(string(b), "s3cr3t-from-env")
	assert.NotContains(string(b), "concurrency: 9")

	// The env still applies at load time.
	cfg, err := config.Load(path)
	require.NoError(err)
	assert.Equal("s3cr3t-from-env", cfg.Graph.ClientSecret)
}

func TestConfigShowMasksSecret(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PLANNERSYNC_GRAPH_CLIENT_SECRET", "s3cr3t")

	out, err := run(t, "config", "show")

	require.NoError(t, err)
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "backend: sqlite")
}
