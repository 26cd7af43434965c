// =============================================================================
// Receivables Reconciler - Source Records
// =============================================================================
//
// This file defines the three source record types and their column
// contracts, and converts loaded tables into typed records.
//
// COLUMN CONTRACTS:
//   | Dataset     | Required                                                 | Optional            |
//   |-------------|----------------------------------------------------------|---------------------|
//   | invoices    | codcli coddoc sersun numsun fecdoc fecvct codmnd tipcam  | tipped              |
//   |             | mododo sldacl mondoc                                     |                     |
//   | collections | coddoc numsun forpag codbco nombco fecpro mondoc monpag  |                     |
//   |             | nudopa                                                   |                     |
//   | clients     | codigo_cliente|codcli nomcli                             | telefono, email (*) |
//
//   (*) the email column is resolved through the configured header aliases.
//
// Schema failures are fatal. Cell-level problems never are: every parse
// returns an explicit ok flag and the caller applies the documented
// fallback (zero, empty string, undetermined date).
//
// =============================================================================

package ledger

import (
	"strings"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/ident"
	"github.com/cobranzas/receivables-reconciler/internal/keys"
	"github.com/cobranzas/receivables-reconciler/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================

const (
	ColClientCode   = "codcli"
	ColDocType      = "coddoc"
	ColSeries       = "sersun"
	ColNumber       = "numsun"
	ColIssueDate    = "fecdoc"
	ColDueDate      = "fecvct"
	ColCurrency     = "codmnd"
	ColExchangeRate = "tipcam"
	ColBilled       = "mododo"
	ColBalance      = "sldacl"
	ColReference    = "mondoc"
	ColOrderType    = "tipped"

	ColMethod      = "forpag"
	ColBankCode    = "codbco"
	ColBankName    = "nombco"
	ColProcessedOn = "fecpro"
	ColDocAmount   = "mondoc"
	ColPaid        = "monpag"
	ColOperation   = "nudopa"

	ColMasterCode = "codigo_cliente"
	ColClientName = "nomcli"
	ColPhone      = "telefono"
)

// Required column sets. Each inner slice is a group of alternatives; at
// least one header of every group must be present.
var (
	InvoiceColumns = [][]string{
		{ColClientCode}, {ColDocType}, {ColSeries}, {ColNumber}, {ColIssueDate},
		{ColDueDate}, {ColCurrency}, {ColExchangeRate}, {ColBilled}, {ColBalance},
		{ColReference},
	}

	CollectionColumns = [][]string{
		{ColDocType}, {ColNumber}, {ColMethod}, {ColBankCode}, {ColBankName},
		{ColProcessedOn}, {ColDocAmount}, {ColPaid}, {ColOperation},
	}

	ClientColumns = [][]string{
		{ColMasterCode, ColClientCode}, {ColClientName},
	}
)

// =============================================================================
// RECORD TYPES
// =============================================================================

// Invoice is one open receivable document.
type Invoice struct {
	// Line is the 1-based data row in the source table.
	Line int

	ClientCode string
	DocType    string
	Series     string
	Number     string

	IssueDateRaw string
	IssueDate    time.Time
	HasIssueDate bool

	DueDateRaw string
	DueDate    time.Time
	HasDueDate bool

	Currency     string
	ExchangeRate decimal.Decimal
	Billed       decimal.Decimal
	Balance      decimal.Decimal
	Reference    decimal.Decimal
	OrderType    string

	Key keys.MatchKey
}

// Collection is one payment or withholding event.
type Collection struct {
	Line        int
	DocType     string
	Number      string
	Method      string
	BankCode    string
	BankName    string
	ProcessedOn string
	DocAmount   decimal.Decimal
	Paid        decimal.Decimal
	Operation   string

	Key keys.MatchKey
}

// Client is one client master entry.
type Client struct {
	Code  string
	Name  string
	Phone string
	Email string
}

// =============================================================================
// TABLE CONVERSION
// =============================================================================

// ParseInvoices converts the invoice table into records.
func ParseInvoices(t *types.Table, mode keys.Mode) []Invoice {
	out := make([]Invoice, 0, t.Len())
	for i, row := range t.Rows {
		get := func(col string) string { return t.Get(row, col) }

		inv := Invoice{
			Line:         i + 1,
			ClientCode:   ident.ClientCode(get(ColClientCode)),
			DocType:      cleanText(get(ColDocType)),
			Series:       cleanText(get(ColSeries)),
			Number:       cleanText(get(ColNumber)),
			IssueDateRaw: cleanText(get(ColIssueDate)),
			DueDateRaw:   cleanText(get(ColDueDate)),
			Currency:     strings.ToUpper(cleanText(get(ColCurrency))),
			ExchangeRate: amountOrZero(get(ColExchangeRate)),
			Billed:       amountOrZero(get(ColBilled)),
			Balance:      amountOrZero(get(ColBalance)),
			Reference:    amountOrZero(get(ColReference)),
			OrderType:    strings.ToUpper(cleanText(get(ColOrderType))),
		}
		inv.IssueDate, inv.HasIssueDate = ParseDate(inv.IssueDateRaw)
		inv.DueDate, inv.HasDueDate = ParseDate(inv.DueDateRaw)
		inv.Key = keys.ForInvoice(mode, inv.DocType, inv.Series, inv.Number)

		out = append(out, inv)
	}
	return out
}

// ParseCollections converts the collections table into records.
func ParseCollections(t *types.Table, mode keys.Mode) []Collection {
	out := make([]Collection, 0, t.Len())
	for i, row := range t.Rows {
		get := func(col string) string { return t.Get(row, col) }

		c := Collection{
			Line:        i + 1,
			DocType:     cleanText(get(ColDocType)),
			Number:      cleanText(get(ColNumber)),
			Method:      strings.ToUpper(cleanText(get(ColMethod))),
			BankCode:    cleanText(get(ColBankCode)),
			BankName:    cleanText(get(ColBankName)),
			ProcessedOn: cleanText(get(ColProcessedOn)),
			DocAmount:   amountOrZero(get(ColDocAmount)),
			Paid:        amountOrZero(get(ColPaid)),
			Operation:   cleanText(get(ColOperation)),
		}
		if d, ok := ParseDate(c.ProcessedOn); ok {
			c.ProcessedOn = d.Format("2006-01-02")
		}
		c.Key = keys.ForCollection(mode, c.DocType, c.Number)

		out = append(out, c)
	}
	return out
}

// ParseClients converts the client master into records. emailHeader is the
// resolved email column, or "" when none was found.
func ParseClients(t *types.Table, emailHeader string) []Client {
	codeCol := ColMasterCode
	if !t.HasColumn(ColMasterCode) {
		codeCol = ColClientCode
	}

	out := make([]Client, 0, t.Len())
	for _, row := range t.Rows {
		c := Client{
			Code:  ident.ClientCode(t.Get(row, codeCol)),
			Name:  cleanText(t.Get(row, ColClientName)),
			Phone: ident.Phone(cleanText(t.Get(row, ColPhone))),
		}
		if emailHeader != "" {
			c.Email = NormalizeEmail(row[emailHeader])
		}
		out = append(out, c)
	}
	return out
}

// NormalizeEmail lower-cases and trims an email cell.
func NormalizeEmail(raw string) string {
	return strings.ToLower(cleanText(raw))
}
