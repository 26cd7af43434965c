package ledger

import (
	"strings"
	"unicode"

	"github.com/cobranzas/receivables-reconciler/internal/types"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EmailResolution records which client-master column supplied emails.
type EmailResolution struct {
	// Header is the matched column header, "" when none matched.
	Header string

	// Alias is the configured alias that matched.
	Alias string
}

// Found reports whether an email column was resolved.
func (r EmailResolution) Found() bool {
	return r.Header != ""
}

// ResolveEmailColumn checks aliases in order against the table headers,
// ignoring case and accents ("Correo_Electrónico" matches
// CORREO_ELECTRONICO). The first alias with a matching header wins.
func ResolveEmailColumn(t *types.Table, aliases []string) EmailResolution {
	folded := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		key := foldHeader(h)
		if _, dup := folded[key]; !dup {
			folded[key] = h
		}
	}

	for _, alias := range aliases {
		if h, ok := folded[foldHeader(alias)]; ok {
			return EmailResolution{Header: h, Alias: alias}
		}
	}
	return EmailResolution{}
}

// foldHeader upper-cases and strips combining marks.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// FilterOrderTypes drops invoices whose order type is excluded. When the
// order-type column is absent nothing is filtered.
func FilterOrderTypes(invoices []Invoice, excluded []string, hasColumn bool) ([]Invoice, int) {
	if !hasColumn || len(excluded) == 0 {
		return invoices, 0
	}

	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[strings.ToUpper(strings.TrimSpace(e))] = true
	}

	kept := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if skip[inv.OrderType] {
			continue
		}
		kept = append(kept, inv)
	}
	return kept, len(invoices) - len(kept)
}

// Merged is an invoice with its client contact attached.
type Merged struct {
	Invoice
	Client      Client
	ClientFound bool
}

// Merge left-joins invoices to the client master on the padded client
// code. Every invoice yields exactly one Merged, in input order; duplicate
// client codes resolve to the last entry.
func Merge(invoices []Invoice, clients []Client) []Merged {
	byCode := make(map[string]Client, len(clients))
	for _, c := range clients {
		byCode[c.Code] = c
	}

	out := make([]Merged, len(invoices))
	for i, inv := range invoices {
		c, ok := byCode[inv.ClientCode]
		if !ok {
			c = Client{Code: inv.ClientCode}
		}
		out[i] = Merged{Invoice: inv, Client: c, ClientFound: ok}
	}
	return out
}
