package amount

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Separator is the only decimal separator recognised in user input.
	Separator = '.'

	// MaxFractionDigits is the minor-unit precision of every amount.
	MaxFractionDigits = 2
)

// Normalize cleans free-text amount input into canonical amount text.
//
// Digits and the first separator are kept; every other character is dropped,
// including later separators (their digits stay). The fractional part is
// truncated to MaxFractionDigits. Input without digits yields "".
// e.g. "PHP 1,250.999" → "1250.99", "12.3.456" → "12.34"
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	seenSeparator := false
	fractionDigits := 0
	hasDigit := false

	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			if seenSeparator {
				if fractionDigits == MaxFractionDigits {
					continue
				}
				fractionDigits++
			}
			hasDigit = true
			b.WriteRune(r)
		case r == Separator && !seenSeparator:
			seenSeparator = true
			b.WriteRune(r)
		}
	}

	if !hasDigit {
		return ""
	}
	return b.String()
}

// Parse converts canonical amount text into a decimal.
// ok is false when the text carries no amount at all.
func Parse(canonical string) (d decimal.Decimal, ok bool) {
	s := Normalize(canonical)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.HasSuffix(s, string(Separator)) {
		s = strings.TrimSuffix(s, string(Separator))
	}
	if strings.HasPrefix(s, string(Separator)) {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsMinorUnit reports whether d is a non-negative multiple of the minor unit.
func IsMinorUnit(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(MaxFractionDigits))
}

// Format renders d with exactly MaxFractionDigits digits for display.
func Format(d decimal.Decimal) string {
	return d.StringFixed(MaxFractionDigits)
}
