package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/plannersync/pkg/fetch"
	"github.com/harrisonrobin/plannersync/pkg/reconcile"
)

func newSyncCommand(root *RootCommand) *cobra.Command {
	var modes []string
	for _, m := range reconcile.Modes {
		modes = append(modes, string(m))
	}

	return &cobra.Command{
		Use:       "sync <" + strings.Join(modes, "|") + ">",
		Short:     "Run one sync pass in the given mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: modes,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject bad modes before touching credentials, network or mirror.
			mode, err := reconcile.ParseMode(args[0])
			if err != nil {
				return err
			}
			return root.runSync(cmd.Context(), mode)
		},
	}
}

func (r *RootCommand) runSync(ctx context.Context, mode reconcile.Mode) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}

	remote, err := r.plannerClient(ctx, cfg)
	if err != nil {
		return err
	}

	fetcher, err := fetch.NewFetcher(fetch.FetcherConfig{
		Remote:      remote,
		Concurrency: cfg.Fetch.Concurrency,
		Logger:      r.Logger,
	})
	if err != nil {
		return err
	}

	m, closeMirror, err := r.openMirror(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeMirror()

	engine, err := reconcile.NewEngine(reconcile.EngineConfig{
		Fetcher: fetcher,
		Remote:  remote,
		Mirror:  m,
		Logger:  r.Logger,
	})
	if err != nil {
		return err
	}

	report, err := engine.Run(ctx, string(mode))
	if report != nil {
		printReport(r.Stdout, report, r.NoColor)
	}
	return err
}

func printReport(w io.Writer, rep *reconcile.Report, noColor bool) {
	paint := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	bold := paint(color.Bold)
	green := paint(color.FgGreen)
	yellow := paint(color.FgYellow)
	cyan := paint(color.FgCyan)
	red := paint(color.FgRed)

	fmt.Fprintf(w, "%s %s (session %s, %s)\n", bold("Sync"), bold(string(rep.Mode)), rep.SessionID, rep.Duration.Round(time.Millisecond))

	switch rep.Mode {
	case reconcile.ModeFull:
		fmt.Fprintf(w, "  Fetched:      %d tasks\n", rep.Fetched)
		fmt.Fprintf(w, "  Rows written: %s\n", green(rep.RowsWritten))
	case reconcile.ModeCompare:
		fmt.Fprintf(w, "  Fetched:      %d tasks\n", rep.Fetched)
		fmt.Fprintf(w, "  In sync:      %s\n", green(rep.InSync))
		fmt.Fprintf(w, "  Remote newer: %s\n", yellow(rep.RemoteNewer))
		fmt.Fprintf(w, "  Local newer:  %s\n", cyan(rep.LocalNewer))
		fmt.Fprintf(w, "  Conflicts:    %s\n", red(rep.Conflicts))
		fmt.Fprintf(w, "  Not mirrored: %d\n", rep.Unmatched)
	case reconcile.ModePush:
		fmt.Fprintf(w, "  Pushed:       %s\n", green(rep.Pushed))
		fmt.Fprintf(w, "  Conflicts:    %s\n", red(rep.Conflicted))
		fmt.Fprintf(w, "  Errors:       %s\n", yellow(rep.Errored))
		fmt.Fprintf(w, "  Skipped rows: %d\n", rep.SkippedRows)
	}

	if len(rep.ColumnsAdded) > 0 {
		fmt.Fprintf(w, "  New columns:  %s\n", strings.Join(rep.ColumnsAdded, ", "))
	}
	if rep.SkippedNodes > 0 {
		fmt.Fprintf(w, "  %s %d plans, buckets or tasks could not be read\n", yellow("Warning:"), rep.SkippedNodes)
	}
	for _, err := range rep.Errors {
		fmt.Fprintf(w, "    - %v\n", err)
	}
}
