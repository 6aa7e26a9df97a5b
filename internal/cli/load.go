package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/argo-ocean/oceanq/internal/loader"
	"github.com/argo-ocean/oceanq/internal/logging"
	"github.com/argo-ocean/oceanq/internal/tui"
	"github.com/argo-ocean/oceanq/internal/ui"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

var loadFlags struct {
	table   string
	replace bool
	force   bool
}

var loadCmd = &cobra.Command{
	Use:   "load [source]",
	Short: "Load an ARGO CSV export into the measurement table",
	Long: `Load streams a CSV file (or an s3://bucket/key object) into the
measurement table with COPY, creating the table when it does not exist.

A table that already holds rows is left alone unless --replace is given.
Replacing asks you to type the table name; --force replaces after a short
countdown instead. The source defaults to the oceanq.yaml "source" entry,
then ARGO_2019.csv.`,
	Example: `  oceanq load
  oceanq load data/ARGO_2019.csv --table argo_2019
  oceanq load s3://argo-exports/ARGO_2019.csv --replace --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVarP(&loadFlags.table, "table", "t", "", "Target table (default from DB_TABLE or argo_data)")
	loadCmd.Flags().BoolVar(&loadFlags.replace, "replace", false, "Truncate and reload a populated table")
	loadCmd.Flags().BoolVar(&loadFlags.force, "force", false, "Skip the confirmation prompt when replacing (countdown instead)")
}

func resetLoadFlags() {
	loadFlags.table = ""
	loadFlags.replace = false
	loadFlags.force = false
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadFlags.force && !loadFlags.replace {
		return fmt.Errorf("invalid argument: --force requires --replace")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	// Handle interrupt signals (Ctrl+C, SIGTERM) so a COPY in flight rolls back
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling load...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if info, err := queryServerInfo(ctx, s.conn); err == nil {
		s.logger.Info("Connected to PostgreSQL %s (%s)", info.Version, info.Database)
	}

	opts := oceanq.LoadOptions{
		Source:  s.cfg.Source,
		Table:   s.cfg.Table,
		Replace: loadFlags.replace,
	}
	if len(args) == 1 {
		opts.Source = args[0]
	}
	if loadFlags.table != "" {
		opts.Table = loadFlags.table
	}

	verbose := getVerboseFlag(cmd)
	approver := selectApprover(loadFlags.force, tui.IsInteractive(), verbose)

	// The progress display reports the outcome; loader logs only add detail.
	var ldrLogger oceanq.Logger = logging.NewNullLogger()
	if verbose {
		ldrLogger = s.logger
	}

	var result *oceanq.LoadResult
	task := func(ctx context.Context, report func(int64)) (string, error) {
		ldr := loader.New(s.conn, ldrLogger, approver, loader.WithProgress(report))
		res, err := ldr.Load(ctx, opts)
		if err != nil {
			return "", err
		}
		result = res
		return describeLoad(res), nil
	}

	message := fmt.Sprintf("Loading %s into %s", opts.Source, opts.Table)
	out := cmd.ErrOrStderr()
	// The replace prompt reads stdin and verbose logs share stderr; both
	// need the plain display.
	if opts.Replace || verbose {
		err = tui.RunTaskPlain(ctx, out, message, task)
	} else {
		err = tui.RunTask(ctx, out, message, task)
	}
	if err != nil {
		return err
	}

	s.logger.Verbose("run %s finished in %s", result.RunID, result.Duration.Round(time.Millisecond))
	return nil
}

// selectApprover picks how a replace of a populated table is confirmed.
func selectApprover(force, interactive, verbose bool) oceanq.Approver {
	switch {
	case force:
		return ui.NewForcedApprover(verbose)
	case interactive:
		return ui.NewInteractiveApprover(verbose)
	default:
		return ui.NewDenyingApprover()
	}
}

func describeLoad(res *oceanq.LoadResult) string {
	if res.Skipped {
		return fmt.Sprintf("%s already holds %s rows; nothing loaded (use --replace to reload)",
			res.Table, humanize.Comma(res.ExistingRows))
	}
	return fmt.Sprintf("Loaded %s rows into %s in %s",
		humanize.Comma(res.RowsLoaded), res.Table, res.Duration.Round(time.Millisecond))
}

