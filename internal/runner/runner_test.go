package runner

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/cobranzas/receivables-reconciler/internal/ledger"
	"github.com/cobranzas/receivables-reconciler/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	invoicesCSV = `codcli;coddoc;sersun;numsun;fecdoc;fecvct;codmnd;tipcam;mododo;sldacl;mondoc;tipped
1023;01;F001;00002541;10/01/2024;15/03/2024;PEN;1;1500,00;1500,00;1500,00;VEN
1023;01;F001;2600;20/01/2024;01/02/2024;USD;4;1000,00;1000,00;1000,00;VEN
77;01;F001;9999;01/03/2024;20/03/2024;PEN;1;5000,00;5000,00;5000,00;PAV
`
	collectionsCSV = `coddoc;numsun;forpag;codbco;nombco;fecpro;mondoc;monpag;nudopa
01;F001-00002541;DT;018;BANCO DE LA NACION;01/02/2024;1500,00;180,40;OP-1
`
	clientsCSV = `codigo_cliente;nomcli;telefono;EMAIL
001023;Comercial Andina SAC;987654321;pagos@andina.pe
`
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setup(t *testing.T, formats ...string) (*config.MainConfig, ledger.Options) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "archive")
	cfg.Output.Formats = formats
	for _, s := range []*config.SourceSettings{&cfg.Sources.Invoices, &cfg.Sources.Collections, &cfg.Sources.Clients} {
		s.Delimiter = ";"
	}

	if err := os.MkdirAll(cfg.InputDir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"cartera_marzo.csv":  invoicesCSV,
		"cobranza_marzo.csv": collectionsCSV,
		"clientes.csv":       clientsCSV,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(cfg.InputDir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	opts, err := ledger.NewOptions(cfg.Rules, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return cfg, opts
}

func TestRunWritesLedgerAndSummary(t *testing.T) {
	cfg, opts := setup(t, "xlsx", "csv")
	r := New(cfg, opts, quietLogger())
	r.Archive = true

	res, err := r.Run(Sources{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Ledger.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (PAV dropped)", len(res.Ledger.Rows))
	}
	if len(res.OutputFiles) != 2 {
		t.Fatalf("output files = %v", res.OutputFiles)
	}
	for _, f := range res.OutputFiles {
		if !utils.FileExists(f) {
			t.Errorf("missing output %s", f)
		}
		if !strings.HasPrefix(filepath.Base(f), "cartera_20240315_") {
			t.Errorf("output name %s lacks the reference date", f)
		}
	}
	if res.SummaryFile == "" || !utils.FileExists(res.SummaryFile) {
		t.Errorf("summary file = %q", res.SummaryFile)
	}

	x, err := excelize.OpenFile(res.OutputFiles[0])
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()
	rows, err := x.GetRows("Cartera")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("xlsx rows = %d, want 3", len(rows))
	}

	first := res.Ledger.Rows[0]
	if !strings.HasPrefix(first.WithholdingState, "Banco:") || first.Withholding.String() != "180" {
		t.Errorf("withholding = %s %q", first.Withholding, first.WithholdingState)
	}

	if len(res.Archived) != 3 {
		t.Errorf("archived = %v", res.Archived)
	}
	if utils.FileExists(filepath.Join(cfg.InputDir, "cartera_marzo.csv")) {
		t.Error("source left in input directory after archiving")
	}
}

func TestRunDryRun(t *testing.T) {
	cfg, opts := setup(t, "xlsx")
	r := New(cfg, opts, quietLogger())
	r.DryRun = true
	r.Archive = true

	res, err := r.Run(Sources{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.OutputFiles) != 0 || res.SummaryFile != "" || len(res.Archived) != 0 {
		t.Errorf("dry run wrote files: %+v", res)
	}
	if utils.FileExists(cfg.OutputDir) {
		t.Error("dry run created the output directory")
	}
	if res.Summary.Rows != 2 {
		t.Errorf("summary rows = %d", res.Summary.Rows)
	}
}

func TestRunExplicitSources(t *testing.T) {
	cfg, opts := setup(t, "csv")
	other := filepath.Join(t.TempDir(), "otros_clientes.csv")
	if err := os.WriteFile(other, []byte("codcli;nomcli\n1023;Otro Nombre\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := New(cfg, opts, quietLogger()).Run(Sources{Clients: other})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Sources.Clients != other {
		t.Errorf("clients source = %s", res.Sources.Clients)
	}
	if res.Ledger.Rows[0].ClientName != "Otro Nombre" || res.Ledger.Email.Found() {
		t.Errorf("explicit clients file ignored: %+v", res.Ledger.Rows[0])
	}
}

func TestRunMissingSource(t *testing.T) {
	cfg, opts := setup(t, "xlsx")
	if err := os.Remove(filepath.Join(cfg.InputDir, "clientes.csv")); err != nil {
		t.Fatal(err)
	}

	res, err := New(cfg, opts, quietLogger()).Run(Sources{})
	if !errors.Is(err, utils.ErrNoInputFile) {
		t.Fatalf("err = %v, want ErrNoInputFile", err)
	}
	if res.ErrorLog == "" || !utils.FileExists(res.ErrorLog) {
		t.Errorf("error log = %q", res.ErrorLog)
	}
	if !utils.FileExists(filepath.Join(cfg.InputDir, "cartera_marzo.csv")) {
		t.Error("sources must stay in place after a failure")
	}
}

func TestRunSchemaFailure(t *testing.T) {
	cfg, opts := setup(t, "xlsx")
	bad := "cod_cli;coddoc\n1;01\n"
	if err := os.WriteFile(filepath.Join(cfg.InputDir, "cartera_marzo.csv"), []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := New(cfg, opts, quietLogger()).Run(Sources{})
	var schemaErr *ledger.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want *ledger.SchemaError", err)
	}

	data, rerr := os.ReadFile(res.ErrorLog)
	if rerr != nil {
		t.Fatalf("error log not written: %v", rerr)
	}
	if !strings.Contains(string(data), "Dataset:        invoices") {
		t.Errorf("error log lacks dataset:\n%s", data)
	}
}
