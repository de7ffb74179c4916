package auctionapi

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// AmountDecimals is the base-unit scale for bid amounts: one whole unit of
// the auction currency is 10^AmountDecimals base units.
const AmountDecimals int32 = 9

// ParseAmount converts a human-readable amount string ("1.25") into uint64
// base units using decimal arithmetic, so no precision is lost to binary
// floating point. Negative amounts, amounts with more than AmountDecimals
// fractional digits, and amounts that overflow uint64 are rejected.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: must not be negative", s)
	}

	scaled := d.Shift(AmountDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimal places", s, AmountDecimals)
	}

	if scaled.GreaterThan(decimal.NewFromUint64(math.MaxUint64)) {
		return 0, fmt.Errorf("invalid amount %q: exceeds maximum representable value", s)
	}

	return scaled.BigInt().Uint64(), nil
}

// FormatAmount renders base units back into the human-readable decimal form.
func FormatAmount(baseUnits uint64) string {
	return decimal.NewFromUint64(baseUnits).Shift(-AmountDecimals).String()
}
