package cmd

import (
	"fmt"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/cobranzas/receivables-reconciler/internal/ledger"
	"github.com/cobranzas/receivables-reconciler/internal/runner"
	"github.com/spf13/cobra"
)

// validateCmd loads the three exports and checks their columns without
// reconciling.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and source exports without reconciling",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Validate(mainConfig); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		opts, err := ledger.NewOptions(mainConfig.Rules, time.Now())
		if err != nil {
			return err
		}

		in, resolved, err := runner.New(mainConfig, opts, logger).Load(sources)
		if err != nil {
			return err
		}
		if err := ledger.CheckSchema(in); err != nil {
			return err
		}

		email := ledger.ResolveEmailColumn(in.Clients, opts.EmailHeaders)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "invoices:    %s (%d rows)\n", resolved.Invoices, in.Invoices.Len())
		fmt.Fprintf(out, "collections: %s (%d rows)\n", resolved.Collections, in.Collections.Len())
		fmt.Fprintf(out, "clients:     %s (%d rows)\n", resolved.Clients, in.Clients.Len())
		if email.Found() {
			fmt.Fprintf(out, "email column: %s\n", email.Header)
		} else {
			fmt.Fprintln(out, "email column: none found, emails will be empty")
		}
		if !in.Invoices.HasColumn(ledger.ColOrderType) {
			fmt.Fprintf(out, "order type column %q absent, no invoices will be excluded\n", ledger.ColOrderType)
		}
		fmt.Fprintln(out, "OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addSourceFlags(validateCmd)
}
