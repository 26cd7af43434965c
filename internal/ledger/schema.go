package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cobranzas/receivables-reconciler/internal/types"
	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// SchemaError reports required columns missing from a dataset. It is the
// only error that aborts a reconciliation once the inputs are loaded.
type SchemaError struct {
	Dataset string
	File    string

	// Missing holds one entry per unsatisfied column group, alternatives
	// joined with "|".
	Missing []string

	// Suggestions maps a missing column to the closest existing header.
	Suggestions map[string]string
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		if s, ok := e.Suggestions[m]; ok {
			parts = append(parts, fmt.Sprintf("%s (did you mean %q?)", m, s))
		} else {
			parts = append(parts, m)
		}
	}

	where := e.Dataset
	if e.File != "" {
		where = fmt.Sprintf("%s (%s)", e.Dataset, e.File)
	}
	return fmt.Sprintf("%s: missing required column(s): %s", where, strings.Join(parts, ", "))
}

// CheckColumns verifies that t satisfies every column group.
func CheckColumns(t *types.Table, groups [][]string) *SchemaError {
	if t == nil {
		return &SchemaError{Missing: []string{"<no table>"}}
	}

	var missing []string
	for _, group := range groups {
		found := false
		for _, col := range group {
			if t.HasColumn(col) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, strings.Join(group, "|"))
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return &SchemaError{
		Dataset:     t.Name,
		File:        t.SourceFile,
		Missing:     missing,
		Suggestions: suggestHeaders(t.Headers, missing),
	}
}

// CheckSchema validates all three inputs and joins every schema error, so
// a single run reports everything that needs fixing.
func CheckSchema(in Inputs) error {
	var errs []error
	checks := []struct {
		table  *types.Table
		name   string
		groups [][]string
	}{
		{in.Invoices, "invoices", InvoiceColumns},
		{in.Collections, "collections", CollectionColumns},
		{in.Clients, "clients", ClientColumns},
	}

	for _, c := range checks {
		if err := CheckColumns(c.table, c.groups); err != nil {
			if err.Dataset == "" {
				err.Dataset = c.name
			}
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// suggestHeaders finds, for each missing column, an existing header that is
// close enough to be a likely rename ("cod_cli" for "codcli").
func suggestHeaders(headers []string, missing []string) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	byLower := make(map[string]string, len(headers))
	candidates := make([]string, 0, len(headers))
	for _, h := range headers {
		l := strings.ToLower(strings.TrimSpace(h))
		if _, dup := byLower[l]; dup {
			continue
		}
		byLower[l] = h
		candidates = append(candidates, l)
	}

	cm := closestmatch.New(candidates, []int{2, 3})
	out := make(map[string]string)
	for _, m := range missing {
		want := strings.Split(m, "|")[0]
		match := cm.Closest(want)
		if match == "" {
			continue
		}
		dist := levenshtein.DistanceForStrings([]rune(want), []rune(match), levenshtein.DefaultOptions)
		if dist <= maxSuggestDistance(want) {
			out[m] = byLower[match]
		}
	}
	return out
}

func maxSuggestDistance(s string) int {
	if n := len(s) / 3; n > 2 {
		return n
	}
	return 2
}
