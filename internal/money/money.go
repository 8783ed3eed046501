package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Scale     = 2
	MaxDigits = 18
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrTooManyDigits   = errors.New("amount has too many digits")
)

// Parse reads a plain decimal literal such as "100", "-3.5" or "12.34".
// Exponents, thousands separators and more than two fractional digits are rejected.
func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	sign := ""
	unsigned := trimmed
	switch unsigned[0] {
	case '-':
		sign = "-"
		unsigned = unsigned[1:]
	case '+':
		unsigned = unsigned[1:]
	}
	parts := strings.SplitN(unsigned, ".", 2)
	wholePart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
		if fracPart == "" {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if wholePart == "" && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if !isDigits(wholePart) || !isDigits(fracPart) {
		return decimal.Zero, ErrInvalidAmount
	}
	if len(fracPart) > Scale {
		return decimal.Zero, ErrTooManyDecimals
	}
	if len(strings.TrimLeft(wholePart, "0"))+Scale > MaxDigits {
		return decimal.Zero, ErrTooManyDigits
	}
	if wholePart == "" {
		wholePart = "0"
	}
	normalized := sign + wholePart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return value, nil
}

// Format renders value with exactly two fractional digits.
func Format(value decimal.Decimal) string {
	return value.StringFixed(Scale)
}

// Fits reports whether value can be stored in a NUMERIC(18,2) column.
func Fits(value decimal.Decimal) bool {
	limit := decimal.New(1, MaxDigits-Scale)
	return value.Abs().LessThan(limit) && value.Equal(value.Round(Scale))
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
