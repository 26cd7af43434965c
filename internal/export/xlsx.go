// =============================================================================
// Receivables Reconciler - Ledger Writers
// =============================================================================
//
// The reconciled ledger is written column-addressed through ledger.Columns
// and Row.Values, so every writer emits the same headers in the same order.
//
// XLSX LAYOUT:
//   Cartera  - one row per invoice, header row frozen and filtered
//   Resumen  - label/value pairs from the run summary
//
// Amount columns are written as numbers so spreadsheet totals work; every
// other column is text.
//
// =============================================================================

package export

import (
	"fmt"

	"github.com/cobranzas/receivables-reconciler/internal/ledger"
	"github.com/xuri/excelize/v2"
)

const (
	// LedgerSheet is the sheet holding the reconciled rows.
	LedgerSheet = "Cartera"

	// SummarySheet is the sheet holding the run summary.
	SummarySheet = "Resumen"
)

// numericColumns are written as numbers instead of text.
var numericColumns = map[string]bool{
	ledger.HeaderDaysOverdue: true,
	ledger.HeaderBilled:      true,
	ledger.HeaderRealBalance: true,
	ledger.HeaderBalance:     true,
	ledger.HeaderWithholding: true,
}

// WriteXLSX writes the ledger and, when summary is not nil, the summary
// sheet to path.
func WriteXLSX(path string, rows []ledger.Row, summary *Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := writeLedgerSheet(f, rows); err != nil {
		return err
	}

	if summary != nil {
		if err := writeSummarySheet(f, *summary); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeLedgerSheet(f *excelize.File, rows []ledger.Row) error {
	header := make([]interface{}, len(ledger.Columns))
	for i, h := range ledger.Columns {
		header[i] = h
	}
	if err := f.SetSheetRow(LedgerSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := rowCells(r)
		if err := f.SetSheetRow(LedgerSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(ledger.Columns))
	if err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(LedgerSheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(LedgerSheet, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetPanes(LedgerSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if len(rows) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1)
		if err := f.AutoFilter(LedgerSheet, ref, nil); err != nil {
			return fmt.Errorf("failed to set filter: %w", err)
		}
	}

	return nil
}

// rowCells converts a row to cell values, amounts as float64.
func rowCells(r ledger.Row) []interface{} {
	values := r.Values()
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	for i, h := range ledger.Columns {
		if !numericColumns[h] {
			continue
		}
		switch h {
		case ledger.HeaderDaysOverdue:
			cells[i] = r.DaysOverdue
		case ledger.HeaderBilled:
			cells[i] = r.Billed.InexactFloat64()
		case ledger.HeaderRealBalance:
			cells[i] = r.RealBalance.InexactFloat64()
		case ledger.HeaderBalance:
			cells[i] = r.Balance.InexactFloat64()
		case ledger.HeaderWithholding:
			cells[i] = r.Withholding.InexactFloat64()
		}
	}
	return cells
}

func writeSummarySheet(f *excelize.File, s Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	for i, p := range s.Pairs() {
		row := []interface{}{p[0], p[1]}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	return f.SetColWidth(SummarySheet, "A", "A", 32)
}
