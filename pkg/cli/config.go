package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/plannersync/pkg/config"
)

func newConfigCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Graph.ClientSecret != "" {
				cfg.Graph.ClientSecret = "********"
			}
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(root.Stdout, string(b))
			return nil
		},
	})

	var (
		backend       string
		spreadsheetID string
		sheet         string
		sqlitePath    string
	)
	setMirror := &cobra.Command{
		Use:   "set-mirror",
		Short: "Select the mirror backend and its location",
		Example: `  plannersync config set-mirror --backend sheets --spreadsheet-id 1AbC... --sheet Tasks
  plannersync config set-mirror --backend sqlite --sqlite-path ~/planner.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// File values only: env overrides such as the client secret must not be persisted.
			cfg, err := config.LoadFile(root.ConfigPath)
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("backend") {
				cfg.Mirror.Backend = backend
			}
			if flags.Changed("spreadsheet-id") {
				cfg.Mirror.SpreadsheetID = spreadsheetID
			}
			if flags.Changed("sheet") {
				cfg.Mirror.Sheet = sheet
			}
			if flags.Changed("sqlite-path") {
				cfg.Mirror.SQLitePath = sqlitePath
			}
			if cfg.Mirror.Backend == config.BackendSheets && cfg.Mirror.SpreadsheetID == "" {
				return fmt.Errorf("--spreadsheet-id is required for the sheets backend")
			}

			if err := config.Save(root.ConfigPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(root.Stdout, "Mirror set to %s\n", cfg.Mirror.Backend)
			return nil
		},
	}
	f := setMirror.Flags()
	f.StringVar(&backend, "backend", "", "Mirror backend: sqlite or sheets.")
	f.StringVar(&spreadsheetID, "spreadsheet-id", "", "Google spreadsheet id (sheets backend).")
	f.StringVar(&sheet, "sheet", "", "Tab title inside the spreadsheet (sheets backend).")
	f.StringVar(&sqlitePath, "sqlite-path", "", "Database file (sqlite backend).")
	cmd.AddCommand(setMirror)

	return cmd
}
