// =============================================================================
// Receivables Reconciler - Pipeline
// =============================================================================
//
// Reconcile runs one batch end to end:
//
//   schema check -> parse records -> drop excluded order types -> merge
//   clients -> resolve withholdings -> real balance + aging -> assemble
//
// The run is a pure function of its inputs and Options.Today. A schema
// error is the only error it returns; everything below row level is
// absorbed into fallback values.
//
// =============================================================================

package ledger

import (
	"fmt"
	"io"

	"github.com/cobranzas/receivables-reconciler/internal/types"
	"github.com/sirupsen/logrus"
)

// Inputs are the three loaded datasets of one run.
type Inputs struct {
	Invoices    *types.Table
	Collections *types.Table
	Clients     *types.Table
}

// Stats counts what happened during a run.
type Stats struct {
	InvoicesRead     int
	CollectionsRead  int
	ClientsRead      int
	ExcludedByType   int
	UnmatchedClients int
	MatchedWithheld  int
	PendingWithheld  int
	NegativeBalances int
}

// Result is the output of Reconcile.
type Result struct {
	Rows  []Row
	Stats Stats
	Email EmailResolution
}

// Reconcile produces the unified ledger. log may be nil.
func Reconcile(in Inputs, opts Options, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = discardLogger()
	}

	if err := CheckSchema(in); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	invoices := ParseInvoices(in.Invoices, opts.KeyMode)
	collections := ParseCollections(in.Collections, opts.KeyMode)

	email := ResolveEmailColumn(in.Clients, opts.EmailHeaders)
	if email.Found() {
		log.WithFields(logrus.Fields{"header": email.Header, "alias": email.Alias}).Info("email column resolved")
	} else {
		log.WithField("aliases", opts.EmailHeaders).Warn("no email column found in client master, emails left empty")
	}
	clients := ParseClients(in.Clients, email.Header)

	stats := Stats{
		InvoicesRead:    len(invoices),
		CollectionsRead: len(collections),
		ClientsRead:     len(clients),
	}

	invoices, stats.ExcludedByType = FilterOrderTypes(invoices, opts.ExcludedOrderTypes, in.Invoices.HasColumn(ColOrderType))
	if stats.ExcludedByType > 0 {
		log.WithField("count", stats.ExcludedByType).Debug("invoices dropped by order type")
	}

	merged := Merge(invoices, clients)
	resolver := NewResolver(collections, opts)

	rows := make([]Row, 0, len(merged))
	for _, m := range merged {
		w := resolver.Resolve(m.Invoice)
		row := Assemble(m, w, opts)

		if !row.ClientFound {
			stats.UnmatchedClients++
		}
		switch {
		case w.Matched && !w.Amount.IsZero():
			stats.MatchedWithheld++
		case w.State == StatePending:
			stats.PendingWithheld++
		}
		if row.RealBalance.IsNegative() {
			stats.NegativeBalances++
			log.WithFields(logrus.Fields{
				"document": row.Document,
				"balance":  row.RealBalance.StringFixed(2),
			}).Warn("negative real balance")
		}

		rows = append(rows, row)
	}

	log.WithFields(logrus.Fields{
		"rows":              len(rows),
		"key_mode":          opts.KeyMode.String(),
		"unmatched_clients": stats.UnmatchedClients,
		"matched_withheld":  stats.MatchedWithheld,
		"pending_withheld":  stats.PendingWithheld,
	}).Info("reconciliation complete")

	return &Result{Rows: rows, Stats: stats, Email: email}, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
