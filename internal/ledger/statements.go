package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Statement is the per-client view of the ledger handed to notification
// senders.
type Statement struct {
	ClientCode string
	ClientName string
	Phone      string
	Email      string

	Rows []Row

	// Totals holds the real balance per currency.
	Totals map[string]decimal.Decimal

	// Worst is the most advanced aging bucket among the rows.
	Worst Status
}

// Currencies returns the currencies of Totals in sorted order.
func (s Statement) Currencies() []string {
	out := make([]string, 0, len(s.Totals))
	for c := range s.Totals {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GroupByClient groups rows per client code in first-seen order.
func GroupByClient(rows []Row) []Statement {
	index := make(map[string]int)
	var out []Statement

	for _, r := range rows {
		i, ok := index[r.ClientCode]
		if !ok {
			i = len(out)
			index[r.ClientCode] = i
			out = append(out, Statement{
				ClientCode: r.ClientCode,
				ClientName: r.ClientName,
				Phone:      r.Phone,
				Email:      r.Email,
				Totals:     make(map[string]decimal.Decimal),
				Worst:      r.Status,
			})
		}

		st := &out[i]
		st.Rows = append(st.Rows, r)
		st.Totals[r.Currency] = st.Totals[r.Currency].Add(r.RealBalance)
		if r.Status.Severity() > st.Worst.Severity() {
			st.Worst = r.Status
		}
	}

	return out
}

// FilterByStatus keeps the rows whose status is one of statuses.
func FilterByStatus(rows []Row, statuses ...Status) []Row {
	want := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []Row
	for _, r := range rows {
		if want[r.Status] {
			out = append(out, r)
		}
	}
	return out
}
