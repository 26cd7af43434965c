package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order. Day-first layouts come before
// month-first ones because the exports are Peruvian.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// ParseAmount parses a monetary cell. The second result is false when the
// cell is empty or not a number; callers decide the fallback.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	for _, symbol := range []string{"US$", "S/.", "S/", "$"} {
		s = strings.TrimPrefix(s, symbol)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",")-1 <= 2:
		// 84,5
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// amountOrZero applies the row-level fallback for amounts.
func amountOrZero(raw string) decimal.Decimal {
	d, ok := ParseAmount(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseDate parses a date cell: ISO, day-first or an Excel serial number.
// The result is truncated to midnight UTC.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "nat", "none", "null":
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return dateOnly(t), true
		}
	}

	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cleanText trims a cell and maps coercion artifacts to "".
func cleanText(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "nan", "nat", "none":
		return ""
	}
	return s
}
