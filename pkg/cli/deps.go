package cli

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/plannersync/pkg/auth"
	"github.com/harrisonrobin/plannersync/pkg/config"
	"github.com/harrisonrobin/plannersync/pkg/google"
	"github.com/harrisonrobin/plannersync/pkg/mirror"
	"github.com/harrisonrobin/plannersync/pkg/mirror/sqlite"
	"github.com/harrisonrobin/plannersync/pkg/planner"
)

func (r *RootCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(r.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	return cfg, nil
}

// plannerClient authenticates against Microsoft Graph and returns a Planner client.
func (r *RootCommand) plannerClient(ctx context.Context, cfg *config.Config) (*planner.Client, error) {
	httpClient, err := auth.GraphClient(ctx, auth.GraphCredentials{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
	}, cfg.Graph.Timeout)
	if err != nil {
		return nil, err
	}

	return planner.NewClient(planner.ClientConfig{
		BaseURL:    cfg.Graph.BaseURL,
		GroupID:    cfg.Graph.GroupID,
		HTTPClient: httpClient,
		Logger:     r.Logger,
	})
}

// openMirror opens the configured mirror backend. The returned func releases it.
func (r *RootCommand) openMirror(ctx context.Context, cfg *config.Config) (mirror.Mirror, func(), error) {
	switch cfg.Mirror.Backend {
	case config.BackendSheets:
		m, err := google.NewClient(ctx, google.ClientConfig{
			SpreadsheetID: cfg.Mirror.SpreadsheetID,
			Sheet:         cfg.Mirror.Sheet,
			Logger:        r.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sheets mirror: %w", err)
		}
		return m, func() {}, nil

	case config.BackendSQLite:
		m, err := sqlite.NewMirror(ctx, sqlite.MirrorConfig{DBPath: cfg.Mirror.SQLitePath, Logger: r.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite mirror: %w", err)
		}
		return m, func() {
			if err := m.Close(); err != nil {
				r.Logger.Warningf("could not close sqlite mirror: %v", err)
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("unknown mirror backend %q", cfg.Mirror.Backend)
}
