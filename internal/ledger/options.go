package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/cobranzas/receivables-reconciler/internal/keys"
	"github.com/shopspring/decimal"
)

// Options carries the business rules and the reference date of one run.
type Options struct {
	// Today is the reference date for aging. Only the calendar day is used.
	Today time.Time

	KeyMode keys.Mode

	WithholdingThreshold decimal.Decimal
	WithholdingRate      decimal.Decimal
	WithholdingMethod    string

	AmortizationExcluded []string
	ExcludedOrderTypes   []string
	DollarCurrencies     []string
	EmailHeaders         []string
	RecordSeparator      string
}

// NewOptions converts the configured rules into pipeline options.
func NewOptions(r config.Rules, today time.Time) (Options, error) {
	mode, err := keys.ParseMode(r.KeyMode)
	if err != nil {
		return Options{}, fmt.Errorf("invalid rules: %w", err)
	}

	return Options{
		Today:                today,
		KeyMode:              mode,
		WithholdingThreshold: decimal.NewFromFloat(r.WithholdingThreshold),
		WithholdingRate:      decimal.NewFromFloat(r.WithholdingRate),
		WithholdingMethod:    strings.ToUpper(strings.TrimSpace(r.WithholdingMethod)),
		AmortizationExcluded: upperAll(r.AmortizationExcludedMethods),
		ExcludedOrderTypes:   upperAll(r.ExcludedOrderTypes),
		DollarCurrencies:     upperAll(r.DollarCurrencies),
		EmailHeaders:         r.EmailHeaders,
		RecordSeparator:      r.RecordSeparator,
	}, nil
}

// DefaultOptions returns the stock rules with the given reference date.
func DefaultOptions(today time.Time) Options {
	opts, _ := NewOptions(config.Default().Rules, today)
	return opts
}

// IsDollar reports whether currency is dollar-denominated.
func (o Options) IsDollar(currency string) bool {
	return contains(o.DollarCurrencies, strings.ToUpper(strings.TrimSpace(currency)))
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
