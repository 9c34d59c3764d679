// Package core provides the investment domain model, validation and money
// handling shared by the HTTP server, the worker and the admin tool.
//
// Amounts are kept as shopspring decimals end to end and only converted to
// minor units (paise) when rendered through go-money.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the ISO code used for display. Gold and Silver are labels
// on a rupee amount, not currencies.
const CurrencyCode = money.INR

// ParseAmount parses a positive decimal amount.
//
// It accepts both dot (1500.50) and comma (1500,50) decimal separators and
// rejects signs, exponents, empty input and zero.
//
// Examples:
//
//	ParseAmount("1500")    -> 1500, nil
//	ParseAmount("12,5")    -> 12.5, nil
//	ParseAmount("-5")      -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatINR renders an amount as rupees with Indian digit grouping, e.g.
// "₹1,500.50" and "₹1,50,000.00".
func FormatINR(d decimal.Decimal) string {
	cur := money.GetCurrency(CurrencyCode)
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()

	f := *cur.Formatter()
	f.Thousand = ""
	out := f.Format(minor)

	start := strings.IndexFunc(out, isDigit)
	if start < 0 {
		return out
	}
	end := start
	for end < len(out) && isDigit(rune(out[end])) {
		end++
	}
	return out[:start] + groupLakh(out[start:end]) + out[end:]
}

// groupLakh separates the last three digits, then every two before them.
func groupLakh(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	return strings.Join(append([]string{head}, parts...), ",") + "," + tail
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// FormatGrams renders an optional weight, or "-" when absent.
func FormatGrams(g decimal.NullDecimal) string {
	if !g.Valid {
		return "-"
	}
	return g.Decimal.String() + "g"
}
