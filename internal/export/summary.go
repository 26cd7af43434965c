// =============================================================================
// Receivables Reconciler - Run Summary
// =============================================================================
//
// Summarize condenses a reconciliation result into the figures operators
// check after every run. The summary is written as a plain-text report next
// to the ledger and as the "Resumen" sheet of the XLSX export.
//
// =============================================================================

package export

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/ident"
	"github.com/cobranzas/receivables-reconciler/internal/ledger"
	"github.com/shopspring/decimal"
)

// Summary holds the headline figures of one run.
type Summary struct {
	StartTime time.Time
	EndTime   time.Time
	Today     time.Time
	KeyMode   string

	Rows             int
	InvoicesRead     int
	ExcludedByType   int
	Clients          int
	UnmatchedClients int
	InvalidPhones    int
	MissingEmails    int
	EmailHeader      string

	MatchedWithheld  int
	PendingWithheld  int
	NegativeBalances int

	// ByStatus counts rows per aging status, including Indeterminado and
	// Error.
	ByStatus map[ledger.Status]int

	// Totals is the real balance per currency.
	Totals map[string]decimal.Decimal

	// PendingWithholding is the sum of pending withholdings in soles.
	PendingWithholding decimal.Decimal
}

// Summarize computes the summary of a result.
func Summarize(res *ledger.Result, opts ledger.Options) Summary {
	s := Summary{
		Today:              opts.Today,
		KeyMode:            opts.KeyMode.String(),
		Rows:               len(res.Rows),
		InvoicesRead:       res.Stats.InvoicesRead,
		ExcludedByType:     res.Stats.ExcludedByType,
		UnmatchedClients:   res.Stats.UnmatchedClients,
		MatchedWithheld:    res.Stats.MatchedWithheld,
		PendingWithheld:    res.Stats.PendingWithheld,
		NegativeBalances:   res.Stats.NegativeBalances,
		EmailHeader:        res.Email.Header,
		ByStatus:           make(map[ledger.Status]int),
		Totals:             make(map[string]decimal.Decimal),
		PendingWithholding: decimal.Zero,
	}

	phones := make(map[string]bool)
	for _, st := range ledger.GroupByClient(res.Rows) {
		s.Clients++
		if st.Email == "" {
			s.MissingEmails++
		}
		if st.Phone == "" {
			continue
		}
		if _, seen := phones[st.Phone]; !seen {
			phones[st.Phone] = ident.PhoneValid(st.Phone)
		}
		if !phones[st.Phone] {
			s.InvalidPhones++
		}
	}

	for _, r := range res.Rows {
		s.ByStatus[r.Status]++
		s.Totals[r.Currency] = s.Totals[r.Currency].Add(r.RealBalance)
		if r.WithholdingState == ledger.StatePending {
			s.PendingWithholding = s.PendingWithholding.Add(r.Withholding)
		}
	}

	return s
}

// StatusOrder lists every status in report order.
var StatusOrder = []ledger.Status{
	ledger.StatusNotDue,
	ledger.StatusPreventive,
	ledger.StatusAdministrative,
	ledger.StatusPreLegal,
	ledger.StatusUndetermined,
	ledger.StatusError,
}

// Currencies returns the currencies in Totals, sorted.
func (s Summary) Currencies() []string {
	out := make([]string, 0, len(s.Totals))
	for c := range s.Totals {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Pairs renders the summary as label/value pairs, in report order.
func (s Summary) Pairs() [][2]string {
	pairs := [][2]string{
		{"Fecha de corte", s.Today.Format("2006-01-02")},
		{"Modo de llave", s.KeyMode},
		{"Facturas leídas", fmt.Sprint(s.InvoicesRead)},
		{"Excluidas por tipo de pedido", fmt.Sprint(s.ExcludedByType)},
		{"Filas en cartera", fmt.Sprint(s.Rows)},
		{"Clientes", fmt.Sprint(s.Clients)},
		{"Clientes sin maestro", fmt.Sprint(s.UnmatchedClients)},
		{"Clientes sin email", fmt.Sprint(s.MissingEmails)},
		{"Teléfonos inválidos", fmt.Sprint(s.InvalidPhones)},
		{"Columna de email", orNone(s.EmailHeader)},
		{"Detracciones depositadas", fmt.Sprint(s.MatchedWithheld)},
		{"Detracciones pendientes", fmt.Sprint(s.PendingWithheld)},
		{"Monto detracción pendiente", s.PendingWithholding.StringFixed(2)},
		{"Saldos reales negativos", fmt.Sprint(s.NegativeBalances)},
	}
	for _, st := range StatusOrder {
		pairs = append(pairs, [2]string{string(st), fmt.Sprint(s.ByStatus[st])})
	}
	for _, c := range s.Currencies() {
		pairs = append(pairs, [2]string{"Saldo real " + c, s.Totals[c].StringFixed(2)})
	}
	return pairs
}

func orNone(s string) string {
	if s == "" {
		return "(ninguna)"
	}
	return s
}

// WriteSummary writes the summary as a text report.
//
// PARAMETERS:
//   - summary: The run summary.
//   - path: The file to create.
//   - outputs: The files written by the run, listed in the report.
//
// RETURNS:
//   - An error if writing fails.
func WriteSummary(summary Summary, path string, outputs []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Receivables Reconciler - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String())

	fmt.Fprintf(writer, "Statistics:\n")
	for _, p := range summary.Pairs() {
		fmt.Fprintf(writer, "  %-30s %s\n", p[0]+":", p[1])
	}

	if len(outputs) > 0 {
		fmt.Fprintf(writer, "\nOutput Files:\n"+
			"--------------------------------------------------------------------------------\n")
		for _, o := range outputs {
			fmt.Fprintf(writer, "  %s\n", o)
		}
	}

	fmt.Fprintf(writer, "================================================================================\n"+
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary file: %w", err)
	}
	return nil
}
