package ledger

import (
	"testing"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/types"
	"github.com/shopspring/decimal"
)

var testToday = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

var (
	invoiceHeaders = []string{
		"codcli", "coddoc", "sersun", "numsun", "fecdoc", "fecvct", "codmnd",
		"tipcam", "mododo", "sldacl", "mondoc", "tipped",
	}
	collectionHeaders = []string{
		"coddoc", "numsun", "forpag", "codbco", "nombco", "fecpro", "mondoc",
		"monpag", "nudopa",
	}
	clientHeaders = []string{"codigo_cliente", "nomcli", "telefono", "Correo"}
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func sampleInputs() Inputs {
	invoices := types.NewTable("invoices", invoiceHeaders, [][]string{
		// matched withholding, hyphenated collection number
		{"1023", "01", "F001", "00002541", "2024-01-10", "2024-03-15", "PEN", "1", "1500.00", "1500.00", "1500.00", "VEN"},
		// pending withholding in dollars
		{"1023", "01", "F001", "2600", "2024-01-20", "2024-02-01", "USD", "4.0", "1000.00", "1000.00", "1000.00", "VEN"},
		// below threshold, not yet due
		{"77", "03", "B002", "15", "2024-03-01", "2024-04-01", "PEN", "1", "700.00", "300.00", "700.00", ""},
		// excluded order type
		{"77", "01", "F001", "9999", "2024-03-01", "2024-03-20", "PEN", "1", "5000.00", "5000.00", "5000.00", "PAV"},
		// unknown client, bad due date
		{"555", "01", "F003", "12", "2024-03-01", "pendiente", "PEN", "1", "200.00", "200.00", "200.00", "VEN"},
	})

	collections := types.NewTable("collections", collectionHeaders, [][]string{
		{"01", "F001-00002541", "DT", "018", "BANCO DE LA NACION", "2024-02-01", "1500.00", "180.40", "OP-1"},
		{"01", "F001-00002541", "EF", "002", "BCP", "2024-02-05", "1500.00", "500.00", "OP-2"},
		{"01", "F001-00002541", "DET", "018", "BANCO DE LA NACION", "2024-02-05", "1500.00", "1.00", "OP-3"},
	})

	clients := types.NewTable("clients", clientHeaders, [][]string{
		{"001023", "Comercial Andina SAC", "987654321", " Pagos@Andina.PE "},
		{"77", "Ferreteria Lima", "5114215555", "nan"},
	})

	return Inputs{Invoices: invoices, Collections: collections, Clients: clients}
}
