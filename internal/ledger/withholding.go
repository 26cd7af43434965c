// =============================================================================
// Receivables Reconciler - Withholding Resolver
// =============================================================================
//
// For each invoice this module decides whether a tax withholding
// ("detracción") applies, how much it is, and whether it has already been
// deposited.
//
// RESOLUTION:
//   1. Collections whose method is the withholding marker (DT) are grouped
//      by match key. Each group keeps its detail blocks and the sum paid.
//   2. Amount:
//        key found      -> round(sum paid, 0)
//        key not found  -> round(billed * rate, 0) if billed > threshold
//                          0 otherwise
//   3. State:
//        amount == 0    -> "No Aplica"
//        key found      -> joined detail blocks (the evidence)
//        otherwise      -> "Pendiente"
//   4. Amortizations: collections for the key whose method is neither DT
//      nor DET, joined the same way; "-" when there are none.
//
// Rounding is half-to-even, which is what the accounting exports expect
// for whole-sol withholding amounts.
//
// =============================================================================

package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// StatePending marks a withholding that is owed but not yet evidenced.
	StatePending = "Pendiente"

	// StateNotApplicable marks an invoice without withholding.
	StateNotApplicable = "No Aplica"

	// NoAmortizations is the placeholder for invoices without payments.
	NoAmortizations = "-"
)

// Withholding is the resolved withholding of one invoice.
type Withholding struct {
	Amount decimal.Decimal

	// State is StateNotApplicable, StatePending or the joined detail blocks
	// of the matched withholding deposits.
	State string

	// Matched is true when the amount came from collection records.
	Matched bool

	// Amortizations lists ordinary payments for the document.
	Amortizations string
}

// collectionGroup accumulates the collections of one match key.
type collectionGroup struct {
	details []string
	paid    decimal.Decimal
}

// Resolver resolves withholdings against a fixed set of collections.
type Resolver struct {
	opts          Options
	withholdings  map[string]*collectionGroup
	amortizations map[string]*collectionGroup
}

// NewResolver indexes the collections by match key.
func NewResolver(collections []Collection, opts Options) *Resolver {
	r := &Resolver{
		opts:          opts,
		withholdings:  make(map[string]*collectionGroup),
		amortizations: make(map[string]*collectionGroup),
	}

	for _, c := range collections {
		key := c.Key.String()

		switch {
		case c.Method == opts.WithholdingMethod:
			addTo(r.withholdings, key, c)
		case !contains(opts.AmortizationExcluded, c.Method):
			addTo(r.amortizations, key, c)
		}
	}

	return r
}

func addTo(index map[string]*collectionGroup, key string, c Collection) {
	g, ok := index[key]
	if !ok {
		g = &collectionGroup{}
		index[key] = g
	}
	g.details = append(g.details, describeCollection(c))
	g.paid = g.paid.Add(c.Paid)
}

// describeCollection renders one collection detail block.
func describeCollection(c Collection) string {
	bank := strings.TrimSpace(strings.Join([]string{c.BankCode, c.BankName}, " "))
	if bank == "" {
		bank = "-"
	}
	return fmt.Sprintf("Banco: %s | Fecha: %s | Monto Doc: %s | Pagado: %s | Op: %s",
		bank,
		orDash(c.ProcessedOn),
		c.DocAmount.StringFixed(2),
		c.Paid.StringFixed(2),
		orDash(c.Operation),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Resolve computes the withholding of one invoice.
func (r *Resolver) Resolve(inv Invoice) Withholding {
	key := inv.Key.String()
	w := Withholding{Amortizations: NoAmortizations}

	if g, ok := r.amortizations[key]; ok {
		w.Amortizations = strings.Join(g.details, r.opts.RecordSeparator)
	}

	g, found := r.withholdings[key]
	if found {
		w.Amount = g.paid.RoundBank(0)
		w.Matched = true
	} else {
		w.Amount = FallbackWithholding(inv.Billed, r.opts)
	}

	switch {
	case w.Amount.IsZero():
		w.State = StateNotApplicable
	case found:
		w.State = strings.Join(g.details, r.opts.RecordSeparator)
	default:
		w.State = StatePending
	}

	return w
}

// FallbackWithholding applies the threshold rule to a billed amount.
func FallbackWithholding(billed decimal.Decimal, opts Options) decimal.Decimal {
	if !billed.GreaterThan(opts.WithholdingThreshold) {
		return decimal.Zero
	}
	return billed.Mul(opts.WithholdingRate).RoundBank(0)
}
