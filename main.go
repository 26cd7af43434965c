// =============================================================================
// Receivables Reconciler - Main Entry Point
// =============================================================================
//
// USAGE:
//   reconciler reconcile   - Build the ledger from the three exports
//   reconciler validate    - Check configuration and exports without reconciling
//   reconciler version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Loading, reconciliation and export logic
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/cobranzas/receivables-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
