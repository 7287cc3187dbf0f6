package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "INR"

var (
	ErrNotPositive     = errors.New("amount must be greater than zero")
	ErrOutOfRange      = errors.New("amount too large")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

func init() {
	// storefront clients expect JSON numbers for amounts
	decimal.MarshalJSONWithoutQuotes = true
}

// ToMinor converts a major-unit amount (rupees) to minor units (paise), rounding half away from zero.
// Amounts whose minor value does not fit in an int64 return ErrOutOfRange.
func ToMinor(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, amount.String())
	}
	return minor.IntPart(), nil
}

// FromMinor converts minor units back to a major-unit amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// PositiveMinor validates amount > 0 and returns it in minor units.
// Amounts that round to zero minor units are rejected as well.
func PositiveMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s", ErrNotPositive, amount.String())
	}
	minor, err := ToMinor(amount)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, fmt.Errorf("%w: %s rounds to zero", ErrNotPositive, amount.String())
	}
	return minor, nil
}

// NormalizeCurrency upper-cases code and defaults to INR when empty.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return code, nil
}

// Percent returns pct percent of amount, rounded to whole minor units.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}
