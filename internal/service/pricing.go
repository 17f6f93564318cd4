package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrice is returned for a price_usd that is not a non-negative decimal
var ErrInvalidPrice = errors.New("invalid price_usd")

// ParsePriceCents converts a decimal dollar amount to cents, rounding half away from zero
func ParsePriceCents(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidPrice, raw)
	}

	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidPrice, raw)
	}
	return cents.IntPart(), nil
}
