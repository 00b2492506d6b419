// Package units converts between human-readable token amounts and
// smallest-unit integers.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeDecimalString expands scientific notation to a fixed-point string
// and truncates any fractional digits beyond the token's precision. It never
// rounds up: excess digits are dropped without carrying, so the result can
// always be paid out of the observed balance.
func NormalizeDecimalString(value string, decimals int) (string, error) {
	s := strings.TrimSpace(value)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid numeric value %q: %w", value, err)
	}
	// Scientific notation is gone after NewFromString; String() is fixed-point.
	s = d.String()
	if !strings.Contains(s, ".") {
		return s, nil
	}
	parts := strings.SplitN(s, ".", 2)
	if decimals <= 0 {
		return parts[0], nil
	}
	frac := parts[1]
	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	return parts[0] + "." + frac, nil
}

// ToUnits converts a human amount to smallest units, truncating excess
// fractional digits first.
func ToUnits(amountHuman string, decimals int) (*big.Int, error) {
	normalized, err := NormalizeDecimalString(amountHuman, decimals)
	if err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid normalized amount %q: %w", normalized, err)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// FromUnits converts a smallest-unit integer to a human-readable decimal.
func FromUnits(amount *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).Shift(-int32(decimals))
}

// FromWei converts a wei amount to whole-ether units.
func FromWei(wei *big.Int) decimal.Decimal {
	return FromUnits(wei, 18)
}
