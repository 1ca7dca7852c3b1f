package domain

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountRequired     = errors.New("amount is required")
	ErrAmountMalformed    = errors.New("amount must be a plain decimal number")
	ErrAmountScale        = errors.New("amount has more fractional digits than the token allows")
	ErrAmountZero         = errors.New("amount must be greater than zero")
	ErrRoyaltiesRange     = errors.New("royalties must be between 0 and 100 percent")
	ErrRoyaltiesPrecision = errors.New("royalties allow at most 7 fractional digits")
)

// MaxBaseUnits is the largest base-unit amount the chain can represent:
// 2^255 - 1. Parsing does not enforce it; transaction builders do.
var MaxBaseUnits = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

// royaltiesScale: 1% = 10_000_000 base units, so 100% = 10^9.
const royaltiesFractionDigits = 7

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// AmountOptions controls how ParseAmount treats empty and zero inputs.
type AmountOptions struct {
	AllowEmpty bool
	AllowZero  bool
}

// ParseAmount converts a human-readable decimal string into the exact
// base-unit integer for a token with the given number of decimals.
// The input must match digits(.digits)? and carry at most `decimals`
// fractional digits; no rounding ever happens. An empty input yields
// zero when AllowEmpty is set, and a zero result is an error unless
// AllowZero is set.
func ParseAmount(raw string, decimals uint32, opts AmountOptions) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if opts.AllowEmpty {
			return big.NewInt(0), nil
		}
		return nil, ErrAmountRequired
	}

	if !amountPattern.MatchString(raw) {
		return nil, ErrAmountMalformed
	}

	intPart := raw
	fracPart := ""
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		intPart = raw[:idx]
		fracPart = raw[idx+1:]
	}

	if uint32(len(fracPart)) > decimals {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrAmountScale, len(fracPart), decimals)
	}

	// Pad the fraction to exactly `decimals` digits and concatenate.
	digits := intPart + fracPart + strings.Repeat("0", int(decimals)-len(fracPart))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, ErrAmountMalformed
	}

	if value.Sign() == 0 && !opts.AllowZero {
		return nil, ErrAmountZero
	}
	return value, nil
}

// FormatAmount is the exact inverse of ParseAmount: it renders a
// base-unit integer as a decimal string, trimming a trailing all-zero
// fraction. No digit grouping is applied.
func FormatAmount(baseUnits *big.Int, decimals uint32) string {
	digits := baseUnits.String()
	if decimals == 0 {
		return digits
	}

	// Left-pad so there is always at least one integer digit.
	if uint32(len(digits)) <= decimals {
		digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
	}

	cut := len(digits) - int(decimals)
	intPart, fracPart := digits[:cut], digits[cut:]
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// ParseRoyaltiesPercent converts a royalty percentage string into base
// units at the fixed scale 1% = 10,000,000 (100% = 10^9). The value
// must lie in [0, 100] and carry at most 7 fractional digits.
func ParseRoyaltiesPercent(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrAmountRequired
	}
	if !amountPattern.MatchString(raw) {
		return nil, ErrAmountMalformed
	}

	if idx := strings.IndexByte(raw, '.'); idx >= 0 && len(raw)-idx-1 > royaltiesFractionDigits {
		return nil, ErrRoyaltiesPrecision
	}

	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, ErrAmountMalformed
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrRoyaltiesRange
	}

	return pct.Shift(royaltiesFractionDigits).BigInt(), nil
}
