// =============================================================================
// Receivables Reconciler - Row Assembler
// =============================================================================
//
// The assembled ledger is the only thing downstream consumers see. Column
// names and order below are the output contract; exporters and statement
// builders address values through Columns and Row.Values, never by struct
// position.
//
// =============================================================================

package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Output column headers, in output order.
const (
	HeaderClientCode       = "Código Cliente"
	HeaderClientName       = "Cliente"
	HeaderPhone            = "Teléfono"
	HeaderOrderType        = "Tipo Pedido"
	HeaderDocument         = "Documento"
	HeaderIssueDate        = "Fecha Emisión"
	HeaderDueDate          = "Fecha Vencimiento"
	HeaderDaysOverdue      = "Días Vencidos"
	HeaderStatus           = "Estado"
	HeaderCurrency         = "Moneda"
	HeaderBilled           = "Monto Facturado"
	HeaderRealBalance      = "Saldo Real"
	HeaderBalance          = "Saldo"
	HeaderWithholding      = "Detracción"
	HeaderWithholdingState = "Estado Detracción"
	HeaderAmortizations    = "Amortizaciones"
	HeaderMatchKey         = "Llave"
	HeaderEmail            = "Email"
)

// Columns lists the output headers in order.
var Columns = []string{
	HeaderClientCode, HeaderClientName, HeaderPhone, HeaderOrderType,
	HeaderDocument, HeaderIssueDate, HeaderDueDate, HeaderDaysOverdue,
	HeaderStatus, HeaderCurrency, HeaderBilled, HeaderRealBalance,
	HeaderBalance, HeaderWithholding, HeaderWithholdingState,
	HeaderAmortizations, HeaderMatchKey, HeaderEmail,
}

// Row is one reconciled invoice.
type Row struct {
	ClientCode  string
	ClientName  string
	Phone       string
	OrderType   string
	Document    string
	IssueDate   string
	DueDate     string
	DaysOverdue int
	Status      Status
	Currency    string

	Billed      decimal.Decimal
	RealBalance decimal.Decimal
	Balance     decimal.Decimal
	Withholding decimal.Decimal

	WithholdingState string
	Amortizations    string
	MatchKey         string
	Email            string

	// ClientFound is false when the client code had no master entry.
	ClientFound bool
}

// Values renders the row in Columns order. Amounts use two decimals.
func (r Row) Values() []string {
	return []string{
		r.ClientCode,
		r.ClientName,
		r.Phone,
		r.OrderType,
		r.Document,
		r.IssueDate,
		r.DueDate,
		strconv.Itoa(r.DaysOverdue),
		string(r.Status),
		r.Currency,
		r.Billed.StringFixed(2),
		r.RealBalance.StringFixed(2),
		r.Balance.StringFixed(2),
		r.Withholding.StringFixed(0),
		r.WithholdingState,
		r.Amortizations,
		r.MatchKey,
		r.Email,
	}
}

// Get returns the rendered value of a column by header, "" if unknown.
func (r Row) Get(header string) string {
	for i, h := range Columns {
		if h == header {
			return r.Values()[i]
		}
	}
	return ""
}

// DocumentReference builds the human-readable "01-F001-00002541" reference,
// skipping empty parts.
func DocumentReference(inv Invoice) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{inv.DocType, inv.Series, inv.Key.Number} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

// formatDate renders a parsed date as ISO, or echoes the raw cell.
func formatDate(d time.Time, ok bool, raw string) string {
	if !ok {
		return raw
	}
	return d.Format("2006-01-02")
}

// Assemble builds the output row for one merged invoice.
func Assemble(m Merged, w Withholding, opts Options) Row {
	days, status := Classify(m.DueDate, m.HasDueDate, opts.Today)

	return Row{
		ClientCode:       m.ClientCode,
		ClientName:       m.Client.Name,
		Phone:            m.Client.Phone,
		OrderType:        m.OrderType,
		Document:         DocumentReference(m.Invoice),
		IssueDate:        formatDate(m.IssueDate, m.HasIssueDate, m.IssueDateRaw),
		DueDate:          formatDate(m.DueDate, m.HasDueDate, m.DueDateRaw),
		DaysOverdue:      days,
		Status:           status,
		Currency:         m.Currency,
		Billed:           m.Billed,
		RealBalance:      RealBalance(m.Balance, w, m.Currency, m.ExchangeRate, opts),
		Balance:          m.Balance,
		Withholding:      w.Amount,
		WithholdingState: w.State,
		Amortizations:    w.Amortizations,
		MatchKey:         m.Key.String(),
		Email:            m.Client.Email,
		ClientFound:      m.ClientFound,
	}
}
