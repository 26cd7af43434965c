package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/cobranzas/receivables-reconciler/internal/ledger"
)

// WriteCSV writes the ledger as UTF-8 CSV with a BOM so spreadsheet tools
// pick up the accented headers.
func WriteCSV(path string, rows []ledger.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString("\ufeff"); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(ledger.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		if err := w.Write(r.Values()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return file.Sync()
}
