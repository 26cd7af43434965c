package tableio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func defaultSettings() config.SourceSettings {
	return config.SourceSettings{Pattern: "*", HeaderRow: 1, Delimiter: ",", Encoding: "UTF-8"}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartera.csv")
	body := "\xEF\xBB\xBFcodcli;coddoc;numsun\n 123 ;01;2541\n;;\n456;03;77\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	settings := defaultSettings()
	settings.Delimiter = ";"

	table, err := Load(path, "invoices", settings)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if table.Name != "invoices" || table.SourceFile != path {
		t.Errorf("table identity = %q / %q", table.Name, table.SourceFile)
	}
	if len(table.Headers) != 3 || table.Headers[0] != "codcli" {
		t.Fatalf("headers = %q", table.Headers)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (empty row skipped)", table.Len())
	}
	if got := table.Rows[0]["codcli"]; got != "123" {
		t.Errorf("codcli = %q, want trimmed 123", got)
	}
}

func TestLoadCSVLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("codigo_cliente,nomcli\n1,Compañía Andina\n")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "clientes.csv")
	if err := os.WriteFile(path, []byte(encoded), 0644); err != nil {
		t.Fatal(err)
	}

	settings := defaultSettings()
	settings.Encoding = "ISO-8859-1"

	table, err := Load(path, "clients", settings)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := table.Rows[0]["nomcli"]; got != "Compañía Andina" {
		t.Errorf("nomcli = %q", got)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cobranzas.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Pagos"); err != nil {
		t.Fatal(err)
	}
	_ = f.SetSheetRow("Pagos", "A1", &[]interface{}{"REPORTE DE COBRANZAS"})
	_ = f.SetSheetRow("Pagos", "A2", &[]interface{}{"coddoc", "numsun", "", "monpag"})
	_ = f.SetSheetRow("Pagos", "A3", &[]interface{}{"01", "F001-00002541", "x", 84})
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	settings := defaultSettings()
	settings.HeaderRow = 2
	settings.Sheet = "pagos"

	table, err := Load(path, "collections", settings)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Headers[2] != "Column_3" {
		t.Errorf("empty header = %q, want Column_3", table.Headers[2])
	}
	if table.Len() != 1 {
		t.Fatalf("rows = %d", table.Len())
	}
	if got := table.Rows[0]["numsun"]; got != "F001-00002541" {
		t.Errorf("numsun = %q", got)
	}
	if got := table.Rows[0]["monpag"]; got != "84" {
		t.Errorf("monpag = %q", got)
	}
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	settings := defaultSettings()
	settings.Sheet = "Nope"

	if _, err := Load(path, "x", settings); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("err = %v, want ErrSheetNotFound", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	pdf := filepath.Join(dir, "cartera.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(pdf, "invoices", defaultSettings()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}

	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty, "invoices", defaultSettings()); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.csv"), "invoices", defaultSettings()); err == nil {
		t.Error("expected error for missing file")
	}

	settings := defaultSettings()
	settings.Encoding = "EBCDIC"
	csvPath := filepath.Join(dir, "x.csv")
	if err := os.WriteFile(csvPath, []byte("a\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(csvPath, "x", settings); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}
