package ledger

import "github.com/shopspring/decimal"

// RealBalance derives the collectible balance of an invoice.
//
// A pending withholding is owed to the tax account, not to us, so it is
// taken off the nominal balance. Withholdings are always in soles: for a
// dollar invoice the amount is converted at the invoice exchange rate. A
// withholding already evidenced by collections is assumed to be reflected
// in the nominal balance.
func RealBalance(nominal decimal.Decimal, w Withholding, currency string, rate decimal.Decimal, opts Options) decimal.Decimal {
	if !w.Amount.IsPositive() {
		return nominal
	}
	if w.State != StatePending {
		return nominal
	}

	if opts.IsDollar(currency) {
		if !rate.IsPositive() {
			return nominal
		}
		return nominal.Sub(w.Amount.Div(rate))
	}

	return nominal.Sub(w.Amount)
}
