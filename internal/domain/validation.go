package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fraction digits kept for every monetary amount.
const AmountPlaces = 2

var pinRegex = regexp.MustCompile(`^[0-9]{4}$`)

// ValidateAmount checks that amount is positive and carries at most two
// fraction digits.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Round(AmountPlaces)) {
		return fmt.Errorf("%w: at most %d fraction digits allowed", ErrInvalidAmount, AmountPlaces)
	}

	return nil
}

// ParseAmount converts user input into a positive amount rounded half-up to
// two fraction digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}

	amount = amount.Round(AmountPlaces)
	if amount.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: rounds to zero", ErrInvalidAmount)
	}

	return amount, nil
}

// ValidatePIN checks the PIN format: exactly four digits.
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

// ValidateHistoryCount parses a mini-statement count. Empty or unparsable
// input falls back to def; parsed values are clamped to at least 1.
func ValidateHistoryCount(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}

	return max(1, n)
}
