package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned for prices below zero. Zero itself is a
// valid price (free items).
var ErrNegativeAmount = errors.New("amount must not be negative")

// ParsePrice turns a storefront-supplied decimal price string into a
// decimal amount. Both "." and "," are accepted as the decimal mark and
// currency symbols or whitespace around the number are ignored, so
// "19.99", "19,99" and "$ 19.99" all parse to the same value.
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := normalize(raw)
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty price %q", raw)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, ErrNegativeAmount
	}
	return amount, nil
}

// MinorUnits converts a decimal amount into the currency's smallest unit,
// rounding half away from zero. Fractional cents never get floored away.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// ParsePriceMinor combines ParsePrice and MinorUnits.
func ParsePriceMinor(raw string) (int64, error) {
	amount, err := ParsePrice(raw)
	if err != nil {
		return 0, err
	}
	return MinorUnits(amount), nil
}

// normalize strips everything that is not part of the number itself and
// settles on "." as the decimal mark. When both separators appear the
// rightmost one is the decimal mark and the other is a grouping separator
// ("1.234,56" -> "1234.56").
func normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}
