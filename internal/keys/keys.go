// =============================================================================
// Receivables Reconciler - Key Normalizer
// =============================================================================
//
// This package builds the canonical match key used to correlate an open
// invoice with the collection records (payments, withholdings) posted
// against it by a different source system.
//
// KEY SHAPE:
//   doc-type + series + zero-padded(8) document number
//
//   | Side        | coddoc | sersun | numsun          | Key             |
//   |-------------|--------|--------|-----------------|-----------------|
//   | Invoice     | 01     | F001   | 2541            | 01F00100002541  |
//   | Collection  | 01     |        | F001-00002541   | 01F00100002541  |
//
// MODES:
//   - Strict (default): trim, drop hyphens and spaces, split a hyphenated
//     collection number into series + number, pad the number.
//   - Loose: trim only. The collection side is doc-type + raw number, which
//     does not match invoices whose numbers embed "SERIES-NUMBER". Kept so
//     the historical behavior can be reproduced against real data.
//
// Both sides go through the same parser; the functions here are pure.
//
// =============================================================================

package keys

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// DocNumberWidth is the zero-padded width of a document number.
const DocNumberWidth = 8

// =============================================================================
// MODE
// =============================================================================

// Mode selects how raw identifier fields are normalized.
type Mode int

const (
	// Strict removes hyphens and internal spaces before building keys.
	Strict Mode = iota

	// Loose only trims surrounding whitespace.
	Loose
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Loose:
		return "loose"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "loose":
		return Loose, nil
	default:
		return Strict, fmt.Errorf("unknown key mode %q (want strict or loose)", s)
	}
}

// =============================================================================
// TOKEN NORMALIZATION
// =============================================================================

// LooseToken trims surrounding whitespace.
func LooseToken(raw string) string {
	return strings.TrimSpace(raw)
}

// StrictToken trims, then removes every hyphen and whitespace rune.
func StrictToken(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Token normalizes raw according to the mode.
func (m Mode) Token(raw string) string {
	if m == Loose {
		return LooseToken(raw)
	}
	return StrictToken(raw)
}

// PadDocNumber zero-pads a document number to DocNumberWidth.
//
// RULES:
//   - Values that parse as a number ("2541", "2541.0") are truncated to an
//     integer and padded.
//   - Purely-digit strings shorter than the width are padded.
//   - Anything else is returned trimmed and unchanged.
func PadDocNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if isDigits(s) {
		return padLeft(s, DocNumberWidth)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && f >= 0 && f < 1e15 {
		return padLeft(strconv.FormatInt(int64(f), 10), DocNumberWidth)
	}

	return s
}

// =============================================================================
// MATCH KEY
// =============================================================================

// MatchKey is the canonical identity of a receivable document.
type MatchKey struct {
	DocType string
	Series  string
	Number  string
}

// String renders the key as the concatenated join token.
func (k MatchKey) String() string {
	return k.DocType + k.Series + k.Number
}

// IsZero reports whether the key carries no identifying data.
func (k MatchKey) IsZero() bool {
	return k.DocType == "" && k.Series == "" && k.Number == ""
}

// ForInvoice builds the key of an open invoice from its doc-type, series
// and number fields.
func ForInvoice(mode Mode, docType, series, number string) MatchKey {
	return parse(mode, docType, series, number)
}

// ForCollection builds the key of a collection record. Collection exports
// carry the series inside the number field ("F001-00002541").
func ForCollection(mode Mode, docType, number string) MatchKey {
	if mode == Loose {
		return MatchKey{
			DocType: LooseToken(docType),
			Number:  LooseToken(number),
		}
	}

	series, num := splitSeries(number)
	return parse(mode, docType, series, num)
}

// parse is the single constructor shared by both sides.
func parse(mode Mode, docType, series, number string) MatchKey {
	return MatchKey{
		DocType: mode.Token(docType),
		Series:  mode.Token(series),
		Number:  PadDocNumber(mode.Token(number)),
	}
}

// splitSeries separates "SERIES-NUMBER". Values without a hyphen are
// returned as a bare number.
func splitSeries(raw string) (string, string) {
	s := strings.TrimSpace(raw)
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return "", s
	}
	return s[:idx], s[idx+1:]
}

// =============================================================================
// HELPERS
// =============================================================================

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
