// =============================================================================
// Receivables Reconciler - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, the main command of the tool.
//
// COMMAND USAGE:
//   reconciler reconcile [flags]
//
// FLAGS:
//   --invoices     : Invoice export (default: newest file matching the pattern)
//   --collections  : Collections export
//   --clients      : Client master
//   --today        : Reference date for aging, YYYY-MM-DD (default: today)
//   --key-mode     : Match-key normalizer, strict or loose (default: config)
//   --dry-run      : Reconcile and report without writing files
//   --archive      : Move the sources to the archive after a successful run
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/ledger"
	"github.com/cobranzas/receivables-reconciler/internal/runner"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	sources  runner.Sources
	todayArg string
	keyMode  string
	dryRun   bool
	archive  bool
)

// reconcileCmd represents the 'reconcile' command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Build the receivables ledger from the three exports",
	Long: `The reconcile command loads the invoice export, the collections export and
the client master, resolves withholdings against deposits, computes real
balances and aging, and writes the ledger to the output directory.

On success:
  - The ledger is written in every configured format (xlsx, csv)
  - A run summary is written next to it
  - With --archive, the sources are moved to the input archive

On error:
  - An error log is created in the output directory
  - The sources remain in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	addSourceFlags(reconcileCmd)

	reconcileCmd.Flags().StringVar(&todayArg, "today", "", "Reference date for aging (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&keyMode, "key-mode", "", "Match-key normalizer: strict or loose")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Reconcile without writing output files")
	reconcileCmd.Flags().BoolVar(&archive, "archive", false, "Archive the source files after a successful run")
}

// addSourceFlags registers the explicit source flags on cmd.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sources.Invoices, "invoices", "", "Path to the invoice export")
	cmd.Flags().StringVar(&sources.Collections, "collections", "", "Path to the collections export")
	cmd.Flags().StringVar(&sources.Clients, "clients", "", "Path to the client master")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runReconcile(cmd *cobra.Command) error {
	today, err := referenceDate(todayArg, time.Now())
	if err != nil {
		return err
	}

	if keyMode != "" {
		mainConfig.Rules.KeyMode = keyMode
	}
	opts, err := ledger.NewOptions(mainConfig.Rules, today)
	if err != nil {
		return err
	}

	r := runner.New(mainConfig, opts, logger)
	r.DryRun = dryRun
	r.Archive = archive

	res, err := r.Run(sources)
	if err != nil {
		if res != nil && res.ErrorLog != "" {
			return fmt.Errorf("%w (details in %s)", err, res.ErrorLog)
		}
		return err
	}

	out := cmd.OutOrStdout()
	s := res.Summary
	fmt.Fprintln(out, "=== Reconciliation Complete ===")
	fmt.Fprintf(out, "Cut-off date:        %s\n", today.Format("2006-01-02"))
	fmt.Fprintf(out, "Key mode:            %s\n", s.KeyMode)
	fmt.Fprintf(out, "Ledger rows:         %d\n", s.Rows)
	fmt.Fprintf(out, "Excluded (order):    %d\n", s.ExcludedByType)
	fmt.Fprintf(out, "Unmatched clients:   %d\n", s.UnmatchedClients)
	fmt.Fprintf(out, "Withholdings:        %d matched, %d pending\n", s.MatchedWithheld, s.PendingWithheld)
	for _, st := range []ledger.Status{ledger.StatusNotDue, ledger.StatusPreventive, ledger.StatusAdministrative, ledger.StatusPreLegal} {
		fmt.Fprintf(out, "  %-24s %d\n", st, s.ByStatus[st])
	}
	for _, f := range res.OutputFiles {
		fmt.Fprintf(out, "  -> %s\n", f)
	}
	if dryRun {
		fmt.Fprintln(out, "Dry run: no files written.")
	}

	return nil
}

// referenceDate parses --today, defaulting to the calendar day of now.
func referenceDate(arg string, now time.Time) (time.Time, error) {
	if arg == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q: want YYYY-MM-DD", arg)
	}
	return t, nil
}
