// Package cli holds the plannersync command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/plannersync/pkg/log"
	loglogrus "github.com/harrisonrobin/plannersync/pkg/log/logrus"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Version is the application version (set via ldflags).
var Version = "dev"

// RootCommand is the global configuration shared by every command.
type RootCommand struct {
	// Global flags.
	ConfigPath string
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &RootCommand{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Logger: log.Noop,
	}

	cmd := &cobra.Command{
		Use:   "plannersync",
		Short: "Mirror Microsoft Planner tasks into a spreadsheet-like table",
		Long: `plannersync mirrors every Planner task visible to an app registration into a
local table (SQLite or a Google Sheets tab) and syncs edits back.

Modes:
  full     Replace the mirror with the remote state
  compare  Highlight rows that diverge, without touching data
  push     Write title and status edits back, guarded by each row's ETag`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root.LoggerType != LoggerTypeDefault && root.LoggerType != LoggerTypeJSON {
				return fmt.Errorf("unknown logger type %q, use default or json", root.LoggerType)
			}
			root.Logger = root.newLogger()
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(fmt.Sprintf("plannersync version %s\n", Version))

	f := cmd.PersistentFlags()
	f.StringVar(&root.ConfigPath, "config", "", "config file (default is $XDG_CONFIG_HOME/plannersync/config.yaml)")
	f.BoolVar(&root.Debug, "debug", false, "Enable debug mode.")
	f.BoolVar(&root.NoLog, "no-log", false, "Disable logger.")
	f.BoolVar(&root.NoColor, "no-color", false, "Disable colored output.")
	f.StringVar(&root.LoggerType, "logger", LoggerTypeDefault, "Selects the logger type (default or json).")

	cmd.AddCommand(
		newSyncCommand(root),
		newAuthCommand(root),
		newTaskCommand(root),
		newConfigCommand(root),
	)
	return cmd
}

// Execute runs the command line described by args (without the program name).
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := NewRootCommand(stdin, stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (r *RootCommand) newLogger() log.Logger {
	if r.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = r.Stderr // Stdout is kept for reports.
	entry := logrus.NewEntry(logrusLog)

	if r.Debug {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch r.LoggerType {
	case LoggerTypeJSON:
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		entry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !r.NoColor,
			DisableColors: r.NoColor,
		})
	}

	logger := loglogrus.NewLogrus(entry).WithValues(log.Kv{"version": Version})
	logger.Debugf("Debug level is enabled")
	return logger
}
