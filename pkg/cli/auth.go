package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/plannersync/pkg/auth"
)

func newAuthCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage credentials",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "google",
		Short: "Authorize access to Google Sheets through the browser",
		Long: `Runs the Google OAuth consent flow and caches the token. Place the
credentials.json downloaded from the Cloud console in the plannersync config
directory first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.RemoveToken(); err != nil {
				return err
			}
			if _, err := auth.GetSheetsService(cmd.Context(), true, root.Logger); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			dir, err := auth.GetXdgHome()
			if err != nil {
				return err
			}
			fmt.Fprintf(root.Stdout, "Authentication successful! Token saved to %s\n", filepath.Join(dir, auth.TokenFile))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "graph",
		Short: "Check that the configured Microsoft Graph credentials are accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if _, err := root.plannerClient(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(root.Stdout, "Graph credentials for tenant %s are valid\n", cfg.Graph.TenantID)
			return nil
		},
	})

	return cmd
}
