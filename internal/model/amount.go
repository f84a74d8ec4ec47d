package model

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a display amount cannot be represented in base units.
var ErrInvalidAmount = errors.New("invalid token amount")

// FormatAmount renders a base-unit token amount with the mint's decimals.
func FormatAmount(base uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(base), -int32(decimals)).StringFixed(int32(decimals))
}

// ParseAmount converts a human amount such as "12.5" into base units.
func ParseAmount(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, s)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, s, decimals)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidAmount, s)
	}
	return bi.Uint64(), nil
}
