// =============================================================================
// Receivables Reconciler - Table Loader
// =============================================================================
//
// This module reads the three accounting exports into fully materialized
// tables. The exports come from different systems and arrive as:
//   - CSV  (any delimiter, UTF-8 or Latin-1/Windows-1252)
//   - XLSX (read with excelize, raw cell values)
//   - XLS  (legacy BIFF workbooks, read with xlsReader)
//
// FEATURES:
//   - Configurable header row (some exports carry a title block on top)
//   - Sheet selection by name, first sheet by default
//   - Empty rows skipped, empty headers named Column_N
//
// ERRORS:
//   Load failures abort the run before reconciliation begins. They are
//   returned wrapped with the file name so the caller can report them once.
//
// =============================================================================

package tableio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/cobranzas/receivables-reconciler/internal/types"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnsupportedFormat is returned for extensions other than csv/xlsx/xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file has no header row")

	// ErrSheetNotFound is returned when the configured sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// =============================================================================
// LOADER FUNCTIONS
// =============================================================================

// Load reads a table from path, choosing the reader by file extension.
//
// PARAMETERS:
//   - path: The path to the export file.
//   - name: The dataset name used in logs and errors.
//   - settings: The source settings from the main configuration.
//
// RETURNS:
//   - The loaded table.
//   - An error if the file cannot be opened or parsed.
func Load(path, name string, settings config.SourceSettings) (*types.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var records [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		records, err = readCSV(file, settings)
	case ".xlsx", ".xlsm":
		records, err = readXLSX(file, settings.Sheet)
	case ".xls":
		records, err = readXLS(file, settings.Sheet)
	default:
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	table, err := build(name, records, settings.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.SourceFile = path

	return table, nil
}

// build turns raw records into a table using the 1-based header row.
func build(name string, records [][]string, headerRow int) (*types.Table, error) {
	if headerRow <= 0 {
		headerRow = 1
	}
	if len(records) < headerRow {
		return nil, ErrEmptyFile
	}

	headers := cleanHeaders(records[headerRow-1])

	data := make([][]string, 0, len(records)-headerRow)
	for _, record := range records[headerRow:] {
		if isRowEmpty(record) {
			continue
		}
		data = append(data, record)
	}

	return types.NewTable(name, headers, data), nil
}

// =============================================================================
// CSV
// =============================================================================

// readCSV decodes and parses a delimited text export.
func readCSV(r io.Reader, settings config.SourceSettings) ([][]string, error) {
	dec, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	var src io.Reader = bufio.NewReader(r)
	if dec != nil {
		src = transform.NewReader(src, dec.NewDecoder())
	} else {
		src = skipBOM(src)
	}

	reader := csv.NewReader(src)
	reader.Comma = delimiterRune(settings.Delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

// decoderFor returns the charmap for a legacy encoding, or nil for UTF-8.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return nil, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// delimiterRune maps a configured delimiter to the CSV comma rune.
func delimiterRune(d string) rune {
	switch d {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if len(d) > 0 {
			return rune(d[0])
		}
		return ','
	}
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	return br
}

// =============================================================================
// XLSX
// =============================================================================

// readXLSX reads one worksheet with raw cell values, so dates arrive as
// Excel serial numbers and numeric codes without display formatting.
func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	name := sheets[0]
	if sheet != "" {
		name = ""
		for _, s := range sheets {
			if strings.EqualFold(s, sheet) {
				name = s
				break
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
		}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

// =============================================================================
// XLS
// =============================================================================

// readXLS reads one worksheet of a legacy BIFF workbook.
func readXLS(r io.ReadSeeker, sheet string) ([][]string, error) {
	workbook, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	count := len(workbook.GetSheets())
	if count == 0 {
		return nil, ErrEmptyFile
	}

	index := 0
	if sheet != "" {
		index = -1
		for i := 0; i < count; i++ {
			s, err := workbook.GetSheet(i)
			if err != nil {
				continue
			}
			if strings.EqualFold(s.GetName(), sheet) {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
		}
	}

	s, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	var records [][]string
	for _, row := range s.GetRows() {
		var record []string
		for _, cell := range row.GetCols() {
			record = append(record, cell.GetString())
		}
		records = append(records, record)
	}
	return records, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanHeaders trims headers and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
