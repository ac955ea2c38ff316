package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/plannersync/pkg/auth"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

const (
	configFile = "config.yaml"
	envPrefix  = "PLANNERSYNC"
)

// Mirror backends.
const (
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

// Config represents the plannersync configuration.
type Config struct {
	Graph  GraphConfig  `mapstructure:"graph" yaml:"graph"`
	Fetch  FetchConfig  `mapstructure:"fetch" yaml:"fetch"`
	Mirror MirrorConfig `mapstructure:"mirror" yaml:"mirror"`
}

// GraphConfig holds the Microsoft Graph app registration.
type GraphConfig struct {
	TenantID     string        `mapstructure:"tenant_id" yaml:"tenant_id"`
	ClientID     string        `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string        `mapstructure:"client_secret" yaml:"client_secret,omitempty"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	GroupID      string        `mapstructure:"group_id" yaml:"group_id,omitempty"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FetchConfig tunes the hierarchy crawl.
type FetchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// MirrorConfig selects and locates the local mirror.
type MirrorConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"`
	SpreadsheetID string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id,omitempty"`
	Sheet         string `mapstructure:"sheet" yaml:"sheet"`
	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// DefaultPath returns the config file location inside the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := auth.GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	sqlitePath := "plannersync.db"
	if dir, err := auth.GetXdgHome(); err == nil {
		sqlitePath = filepath.Join(dir, "mirror.db")
	}
	return &Config{
		Graph: GraphConfig{
			BaseURL: "https://graph.microsoft.com/v1.0",
			Timeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			Concurrency: 4,
		},
		Mirror: MirrorConfig{
			Backend:    BackendSQLite,
			Sheet:      "Tasks",
			SQLitePath: sqlitePath,
		},
	}
}

// Load reads the config file at path, or DefaultPath when empty. A missing
// file yields the defaults. Environment variables prefixed with PLANNERSYNC_
// override file values, e.g. PLANNERSYNC_GRAPH_CLIENT_SECRET.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadFile is like Load but ignores the environment. Use it when the result
// is written back with Save so env-only values never reach the file.
func LoadFile(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("could not find path to configuration file: %w", err)
		}
		path = p
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not check config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("graph.tenant_id", d.Graph.TenantID)
	v.SetDefault("graph.client_id", d.Graph.ClientID)
	v.SetDefault("graph.client_secret", d.Graph.ClientSecret)
	v.SetDefault("graph.base_url", d.Graph.BaseURL)
	v.SetDefault("graph.group_id", d.Graph.GroupID)
	v.SetDefault("graph.timeout", d.Graph.Timeout)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("mirror.backend", d.Mirror.Backend)
	v.SetDefault("mirror.spreadsheet_id", d.Mirror.SpreadsheetID)
	v.SetDefault("mirror.sheet", d.Mirror.Sheet)
	v.SetDefault("mirror.sqlite_path", d.Mirror.SQLitePath)
}

// Validate checks the values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Mirror.Backend {
	case BackendSQLite:
		if c.Mirror.SQLitePath == "" {
			return fmt.Errorf("mirror.sqlite_path is required for the sqlite backend: %w", model.ErrNotValid)
		}
	case BackendSheets:
		if c.Mirror.Sheet == "" {
			return fmt.Errorf("mirror.sheet is required for the sheets backend: %w", model.ErrNotValid)
		}
	default:
		return fmt.Errorf("unknown mirror backend %q, use sqlite or sheets: %w", c.Mirror.Backend, model.ErrNotValid)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be positive: %w", model.ErrNotValid)
	}
	return nil
}

// Save writes cfg to path, or DefaultPath when empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("could not find path to configuration file: %w", err)
		}
		path = p
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
