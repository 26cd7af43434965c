// =============================================================================
// Receivables Reconciler - Shared Types
// =============================================================================
//
// This package contains the tabular types shared by the loaders, the ledger
// pipeline and the exporters. Keeping them here avoids import cycles between:
//   - tableio (produces tables)
//   - ledger  (consumes tables)
//   - export  (writes derived tables)
//
// =============================================================================

package types

import "strings"

// =============================================================================
// TABLE TYPES
// =============================================================================

// Row is a single data row keyed by column header.
type Row map[string]string

// Table is a fully materialized tabular dataset.
// Every loader (CSV, XLSX, XLS) produces one of these.
type Table struct {
	// Name identifies the dataset in logs and errors ("invoices", "clients", ...).
	Name string

	// SourceFile is the path the table was loaded from, if any.
	SourceFile string

	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows. Missing cells are stored as "".
	Rows []Row
}

// NewTable builds a table from headers and positional records.
// Records shorter than the header list are padded with empty values.
func NewTable(name string, headers []string, records [][]string) *Table {
	t := &Table{
		Name:    name,
		Headers: headers,
		Rows:    make([]Row, 0, len(records)),
	}

	for _, record := range records {
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// HasColumn reports whether the table has a header equal to name,
// ignoring case and surrounding whitespace.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Column returns the actual header matching name case-insensitively.
func (t *Table) Column(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, h := range t.Headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return h, true
		}
	}
	return "", false
}

// Get returns the value of column name in row, resolving the header
// case-insensitively. Absent columns yield "".
func (t *Table) Get(row Row, name string) string {
	if v, ok := row[name]; ok {
		return v
	}
	if h, ok := t.Column(name); ok {
		return row[h]
	}
	return ""
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
