// Package format renders numbers, money, quantities and dates for display.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the fixed human-readable date pattern used in tables.
const DateLayout = "Jan 02, 2006"

// CurrencySymbol prefixes every formatted money value.
const CurrencySymbol = "₹"

// IndianNumber groups the integer part the Indian way: the last three
// digits, then pairs (12,34,567). A fractional part is kept only when the
// value has one and is truncated, not rounded, to two digits.
func IndianNumber(d decimal.Decimal) string {
	return groupIndian(d.String())
}

// Currency formats a money amount with exactly two decimals and Indian grouping.
func Currency(d decimal.Decimal) string {
	s := groupIndian(d.StringFixed(2))
	if strings.HasPrefix(s, "-") {
		return "-" + CurrencySymbol + s[1:]
	}
	return CurrencySymbol + s
}

// Quantity formats a quantity to two decimals followed by its unit.
func Quantity(d decimal.Decimal, unit string) string {
	s := d.StringFixed(2)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// Date formats t with DateLayout. The zero time renders as "".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Percent formats a percentage with two decimals.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// ParseDecimal parses user input leniently: blanks are zero, and grouping
// commas, spaces and the currency symbol are ignored.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, CurrencySymbol)
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d, nil
}

func groupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac = s[i+1:]
		s = s[:i]
		if len(frac) > 2 {
			frac = frac[:2]
		}
		frac = "." + frac
	}

	if len(s) <= 3 {
		return sign + s + frac
	}

	last3 := s[len(s)-3:]
	rest := s[:len(s)-3]

	var b strings.Builder
	lead := len(rest) % 2
	if lead > 0 {
		b.WriteString(rest[:lead])
	}
	for i := lead; i < len(rest); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(rest[i : i+2])
	}
	return sign + b.String() + "," + last3 + frac
}
