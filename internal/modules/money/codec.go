// Package money converts exact decimal currency strings to and from scaled
// integer minor units. All amount arithmetic and comparison elsewhere in the
// codebase happens on these integers; floats never touch monetary values.
package money

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// decimalRe is the only accepted shape for a monetary string: no whitespace,
// no exponent notation, no empty string, at most one decimal point.
var decimalRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// exponents: minor-unit decimal exponent per supported currency.
var exponents = map[string]int32{
	"EUR": 2,
	"USD": 2,
	"GBP": 2,
	"TRY": 2,
	"JPY": 0,
}

// SupportedCurrency reports whether code has a known minor-unit exponent.
func SupportedCurrency(code string) bool {
	_, ok := exponents[code]
	return ok
}

// DecimalToMinor parses an exact decimal string into minor units
// (cents for EUR/USD), rounding half-up at one digit past the currency
// exponent. Negative amounts are rejected.
func DecimalToMinor(text, currency string) (int64, error) {
	exp, ok := exponents[currency]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}
	if !decimalRe.MatchString(text) {
		return 0, ErrMalformedAmount
	}
	if strings.HasPrefix(text, "-") {
		return 0, ErrNegativeAmount
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, ErrMalformedAmount
	}

	// Round is half away from zero; for non-negative input that is half-up.
	minor := d.Shift(exp).Round(0)

	bi := minor.BigInt()
	if !bi.IsInt64() {
		return 0, ErrAmountOutOfRange
	}
	return bi.Int64(), nil
}

// MinorToDecimal renders minor units back to the canonical decimal string,
// zero-padded to the currency exponent. Zero-exponent currencies render with
// no decimal point.
func MinorToDecimal(minor int64, currency string) (string, error) {
	exp, ok := exponents[currency]
	if !ok {
		return "", ErrUnsupportedCurrency
	}
	if minor < 0 {
		return "", ErrNegativeAmount
	}
	if exp == 0 {
		return strconv.FormatInt(minor, 10), nil
	}
	return decimal.New(minor, -exp).StringFixed(exp), nil
}

// Multiply computes unitMinor * qty in minor units with overflow detection.
func Multiply(unitMinor int64, qty int) (int64, error) {
	if unitMinor < 0 || qty < 0 {
		return 0, ErrNegativeAmount
	}
	if qty == 0 || unitMinor == 0 {
		return 0, nil
	}
	out := unitMinor * int64(qty)
	if out/int64(qty) != unitMinor {
		return 0, ErrAmountOutOfRange
	}
	return out, nil
}

// Sum adds minor-unit values with overflow detection.
func Sum(values []int64) (int64, error) {
	var total int64
	for _, v := range values {
		if v < 0 {
			return 0, ErrNegativeAmount
		}
		next := total + v
		if next < total {
			return 0, ErrAmountOutOfRange
		}
		total = next
	}
	return total, nil
}

// MultiplyExact is the arbitrary-precision variant of Multiply, for totals
// that may exceed the int64 range when aggregated.
func MultiplyExact(unitMinor int64, qty int) (decimal.Decimal, error) {
	if unitMinor < 0 || qty < 0 {
		return decimal.Zero, ErrNegativeAmount
	}
	return decimal.NewFromInt(unitMinor).Mul(decimal.NewFromInt(int64(qty))), nil
}

// SumExact adds arbitrary-precision minor-unit values. Operands must be
// non-negative integers.
func SumExact(values []decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, v := range values {
		if v.IsNegative() {
			return decimal.Zero, ErrNegativeAmount
		}
		if !v.IsInteger() {
			return decimal.Zero, ErrMalformedAmount
		}
		total = total.Add(v)
	}
	return total, nil
}
