package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/plannersync/pkg/config"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		file   string
		env    map[string]string
		exp    func(*config.Config)
		expErr error
	}{
		"A missing file should return the defaults.": {
			exp: func(c *config.Config) {},
		},
		"File values should override the defaults.": {
			file: `
graph:
  tenant_id: contoso
  client_id: app
  timeout: 5s
fetch:
  concurrency: 8
mirror:
  backend: sheets
  spreadsheet_id: abc
  sheet: Planner
`,
			exp: func(c *config.Config) {
				c.Graph.TenantID = "contoso"
				c.Graph.ClientID = "app"
				c.Graph.Timeout = 5 * time.Second
				c.Fetch.Concurrency = 8
				c.Mirror.Backend = config.BackendSheets
				c.Mirror.SpreadsheetID = "abc"
				c.Mirror.Sheet = "Planner"
			},
		},
		"Environment should override the file.": {
			file: "graph:\n  client_secret: from-file\n",
			env: map[string]string{
				"PLANNERSYNC_GRAPH_CLIENT_SECRET": "from-env",
				"PLANNERSYNC_FETCH_CONCURRENCY":   "2",
			},
			exp: func(c *config.Config) {
				c.Graph.ClientSecret = "from-env"
				c.Fetch.Concurrency = 2
			},
		},
		"An unknown backend should fail.": {
			file:   "mirror:\n  backend: excel\n",
			expErr: model.ErrNotValid,
		},
		"A non positive concurrency should fail.": {
			file:   "fetch:\n  concurrency: 0\n",
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			dir := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", dir)
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(dir, "config.yaml")
			if test.file != "" {
				require.NoError(os.WriteFile(path, []byte(test.file), 0600))
			}

			got, err := config.Load(path)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			exp := config.DefaultConfig()
			test.exp(exp)
			assert.Equal(exp, got)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := config.DefaultConfig()
	cfg.Mirror.Backend = config.BackendSheets
	cfg.Mirror.SpreadsheetID = "sheet-123"
	cfg.Graph.Timeout = 45 * time.Second

	require.NoError(config.Save("", cfg))

	path, err := config.DefaultPath()
	require.NoError(err)
	assert.Equal(filepath.Join(dir, "plannersync", "config.yaml"), path)

	got, err := config.Load("")
	require.NoError(err)
	assert.Equal(cfg, got)
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Mirror.Backend = "csv"

	err := config.Save("", cfg)
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestLoadFileIgnoresEnvironment(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PLANNERSYNC_GRAPH_CLIENT_SECRET", "from-env")
	t.Setenv("PLANNERSYNC_MIRROR_BACKEND", "sheets")

	path := filepath.Join(dir, "config.yaml")
	require.NoError(os.WriteFile(path, []byte("graph:\n  client_id: app\n"), 0600))

	got, err := config.LoadFile(path)
	require.NoError(err)

	exp := config.DefaultConfig()
	exp.Graph.ClientID = "app"
	assert.Equal(exp, got)
}
