package ledger

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/cobranzas/receivables-reconciler/internal/keys"
	"github.com/cobranzas/receivables-reconciler/internal/types"
)

func reconcile(t *testing.T, in Inputs, opts Options) *Result {
	t.Helper()
	res, err := Reconcile(in, opts, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	return res
}

func TestReconcileSample(t *testing.T) {
	res := reconcile(t, sampleInputs(), DefaultOptions(testToday))

	if len(res.Rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(res.Rows))
	}

	matched := res.Rows[0]
	if matched.Document != "01-F001-00002541" || matched.MatchKey != "01F00100002541" {
		t.Errorf("document/key = %q/%q", matched.Document, matched.MatchKey)
	}
	if !matched.Withholding.Equal(dec(t, "180")) || !strings.HasPrefix(matched.WithholdingState, "Banco: 018") {
		t.Errorf("matched withholding = %s %q", matched.Withholding, matched.WithholdingState)
	}
	if !matched.RealBalance.Equal(dec(t, "1500")) {
		t.Errorf("matched real balance = %s, want 1500", matched.RealBalance)
	}
	if !strings.Contains(matched.Amortizations, "Op: OP-2") || strings.Contains(matched.Amortizations, "OP-3") {
		t.Errorf("amortizations = %q", matched.Amortizations)
	}
	if matched.Status != StatusPreventive || matched.DaysOverdue != 0 {
		t.Errorf("aging = %d %q", matched.DaysOverdue, matched.Status)
	}
	if matched.ClientCode != "001023" || matched.Email != "pagos@andina.pe" || matched.Phone != "+51987654321" {
		t.Errorf("contact = %q %q %q", matched.ClientCode, matched.Email, matched.Phone)
	}

	pending := res.Rows[1]
	if pending.WithholdingState != StatePending || !pending.RealBalance.Equal(dec(t, "970")) {
		t.Errorf("pending row = %q %s", pending.WithholdingState, pending.RealBalance)
	}
	if pending.Status != StatusPreLegal || pending.DaysOverdue != 43 {
		t.Errorf("pending aging = %d %q", pending.DaysOverdue, pending.Status)
	}

	small := res.Rows[2]
	if small.WithholdingState != StateNotApplicable || small.Status != StatusNotDue || small.Email != "" {
		t.Errorf("small row = %q %q %q", small.WithholdingState, small.Status, small.Email)
	}
	if small.Phone != "+5114215555" {
		t.Errorf("phone = %q", small.Phone)
	}

	orphan := res.Rows[3]
	if orphan.ClientFound || orphan.ClientName != "" || orphan.ClientCode != "000555" {
		t.Errorf("orphan row = %+v", orphan)
	}
	if orphan.Status != StatusUndetermined || orphan.DueDate != "pendiente" {
		t.Errorf("orphan aging = %q %q", orphan.Status, orphan.DueDate)
	}

	want := Stats{
		InvoicesRead:     5,
		CollectionsRead:  3,
		ClientsRead:      2,
		ExcludedByType:   1,
		UnmatchedClients: 1,
		MatchedWithheld:  1,
		PendingWithheld:  1,
	}
	if res.Stats != want {
		t.Errorf("stats = %+v, want %+v", res.Stats, want)
	}
	if res.Email.Header != "Correo" || res.Email.Alias != "CORREO" {
		t.Errorf("email resolution = %+v", res.Email)
	}
}

func TestReconcileDropsExcludedOrderType(t *testing.T) {
	res := reconcile(t, sampleInputs(), DefaultOptions(testToday))
	for _, r := range res.Rows {
		if r.OrderType == "PAV" {
			t.Fatalf("PAV invoice %s present in output", r.Document)
		}
	}
}

func TestReconcileWithoutOrderTypeColumn(t *testing.T) {
	in := sampleInputs()
	headers := invoiceHeaders[:len(invoiceHeaders)-1]
	in.Invoices = types.NewTable("invoices", headers, [][]string{
		{"77", "01", "F001", "9999", "2024-03-01", "2024-03-20", "PEN", "1", "5000.00", "5000.00", "5000.00"},
	})

	res := reconcile(t, in, DefaultOptions(testToday))
	if len(res.Rows) != 1 || res.Stats.ExcludedByType != 0 {
		t.Errorf("rows = %d excluded = %d, want 1 and 0", len(res.Rows), res.Stats.ExcludedByType)
	}
}

func TestReconcileWithoutEmailColumn(t *testing.T) {
	in := sampleInputs()
	in.Clients = types.NewTable("clients", []string{"codcli", "nomcli"}, [][]string{
		{"1023", "Comercial Andina SAC"},
	})

	res := reconcile(t, in, DefaultOptions(testToday))
	if res.Email.Found() {
		t.Fatalf("unexpected email resolution %+v", res.Email)
	}
	for _, r := range res.Rows {
		if r.Email != "" {
			t.Errorf("row %s email = %q, want empty", r.Document, r.Email)
		}
	}
	if res.Rows[0].ClientName != "Comercial Andina SAC" {
		t.Errorf("codcli fallback join failed: %+v", res.Rows[0])
	}
}

// Every invoice surviving the order-type filter yields exactly one row,
// even when the client master repeats a code.
func TestReconcileLeftJoinCompleteness(t *testing.T) {
	in := sampleInputs()
	in.Clients = types.NewTable("clients", clientHeaders, [][]string{
		{"1023", "Old Name", "", ""},
		{"001023", "New Name", "", ""},
	})

	res := reconcile(t, in, DefaultOptions(testToday))
	if len(res.Rows) != res.Stats.InvoicesRead-res.Stats.ExcludedByType {
		t.Fatalf("rows = %d, want %d", len(res.Rows), res.Stats.InvoicesRead-res.Stats.ExcludedByType)
	}
	seen := make(map[string]int)
	for _, r := range res.Rows {
		seen[r.Document]++
	}
	for doc, n := range seen {
		if n != 1 {
			t.Errorf("document %s appears %d times", doc, n)
		}
	}
	if res.Rows[0].ClientName != "New Name" {
		t.Errorf("duplicate client code should resolve to last entry, got %q", res.Rows[0].ClientName)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	opts := DefaultOptions(testToday)
	first := reconcile(t, sampleInputs(), opts)
	second := reconcile(t, sampleInputs(), opts)

	for i := range first.Rows {
		if !reflect.DeepEqual(first.Rows[i].Values(), second.Rows[i].Values()) {
			t.Errorf("row %d differs between runs", i)
		}
	}
}

func TestReconcileKeyModeRegression(t *testing.T) {
	opts := DefaultOptions(testToday)
	opts.KeyMode = keys.Loose

	res := reconcile(t, sampleInputs(), opts)
	row := res.Rows[0]
	if row.WithholdingState != StatePending {
		t.Fatalf("loose mode should miss the hyphenated deposit, got state %q", row.WithholdingState)
	}
	if !row.RealBalance.Equal(dec(t, "1320")) {
		t.Errorf("loose real balance = %s, want 1320", row.RealBalance)
	}
}

// Real balance should not go negative unless a withholding is pending;
// anything else points at bad source data.
func TestReconcileNonNegativeBalances(t *testing.T) {
	res := reconcile(t, sampleInputs(), DefaultOptions(testToday))
	for _, r := range res.Rows {
		if r.RealBalance.IsNegative() && r.WithholdingState != StatePending {
			t.Errorf("row %s has negative real balance %s", r.Document, r.RealBalance)
		}
	}
	if res.Stats.NegativeBalances != 0 {
		t.Errorf("negative balances = %d", res.Stats.NegativeBalances)
	}
}

func TestReconcileSchemaError(t *testing.T) {
	in := sampleInputs()
	headers := append([]string{"cod_cli"}, invoiceHeaders[1:]...)
	in.Invoices = types.NewTable("invoices", headers, nil)

	_, err := Reconcile(in, DefaultOptions(testToday), nil)
	if err == nil {
		t.Fatal("expected schema error")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error %v is not a *SchemaError", err)
	}
	if schemaErr.Dataset != "invoices" || !reflect.DeepEqual(schemaErr.Missing, []string{"codcli"}) {
		t.Errorf("schema error = %+v", schemaErr)
	}
	if got := schemaErr.Suggestions["codcli"]; got != "cod_cli" {
		t.Errorf("suggestion = %q, want cod_cli", got)
	}
	if !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("message lacks suggestion: %v", err)
	}
}

func TestCheckSchemaReportsEveryDataset(t *testing.T) {
	err := CheckSchema(Inputs{
		Invoices:    types.NewTable("invoices", []string{"x"}, nil),
		Collections: nil,
		Clients:     types.NewTable("", []string{"nomcli"}, nil),
	})
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, name := range []string{"invoices", "collections", "clients"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("missing %s in %v", name, err)
		}
	}
	if !strings.Contains(err.Error(), "codigo_cliente|codcli") {
		t.Errorf("client alternatives not reported: %v", err)
	}
}
