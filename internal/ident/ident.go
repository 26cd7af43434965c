// Package ident normalizes client codes and phone numbers to the canonical
// forms used for joining the client master and for outbound messaging.
package ident

import (
	"math"
	"strconv"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// ClientCodeWidth is the zero-padded width of a client code.
const ClientCodeWidth = 6

// Region is the libphonenumber region used to validate formatted phones.
var Region = "PE"

// ClientCode coerces raw to an integer and zero-pads it to six characters.
// Spreadsheets store the code as text ("000123"), integer ("123") or float
// ("123.0"); all three map to "000123". Values that are not numeric are
// zero-filled as text.
func ClientCode(raw string) string {
	s := strings.TrimSpace(raw)

	if n, ok := parseWhole(s); ok {
		return zfill(strconv.FormatInt(n, 10), ClientCodeWidth)
	}

	return zfill(s, ClientCodeWidth)
}

// Phone strips every non-digit and prefixes the Peruvian country code.
//
//	""            -> ""
//	51XXXXXXXXX   -> +51XXXXXXXXX (11 digits)
//	XXXXXXXXX     -> +51XXXXXXXXX (9-digit mobile)
//	51...         -> +51...       (other lengths)
//	...           -> +51...
func Phone(raw string) string {
	s := strings.TrimSpace(raw)
	// numeric cells come back as "987654321.0"
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			s = strings.TrimSuffix(s, ".0")
		}
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "51") && len(digits) == 11:
		return "+" + digits
	case len(digits) == 9:
		return "+51" + digits
	case strings.HasPrefix(digits, "51"):
		return "+" + digits
	default:
		return "+51" + digits
	}
}

// PhoneValid reports whether a formatted phone is a dialable number.
func PhoneValid(formatted string) bool {
	if formatted == "" {
		return false
	}
	p, err := libphonenumber.Parse(formatted, Region)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(p)
}

func parseWhole(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1e15 {
		return 0, false
	}
	return int64(f), true
}

// zfill pads s on the left with zeros, keeping a leading sign in front.
func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := strings.Repeat("0", width-len(s))
	if s != "" && (s[0] == '-' || s[0] == '+') {
		return s[:1] + pad + s[1:]
	}
	return pad + s
}
