package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rounding precision for money and unit-price values.
const (
	MoneyPlaces = 2
	PricePlaces = 4
)

// ParseDecimal converts a source cell into an exact decimal. The value goes
// from string to decimal directly; it never passes through a binary float.
// Thousands separators and common currency prefixes are tolerated, and a
// parenthesized value is negative. An empty string is an error: callers
// decide whether the field was optional.
func ParseDecimal(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty numeric value")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot convert %q to decimal: %w", value, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseOptionalDecimal is ParseDecimal with zero for an absent value.
func ParseOptionalDecimal(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return ParseDecimal(value)
}

// RoundMoney rounds to the money precision, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundPrice rounds to the unit-price precision, half away from zero.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PricePlaces)
}
