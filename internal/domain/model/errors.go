package model

import (
	"errors"
	"fmt"

	"github.com/bibbank/finance-service/pkg/money"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrInvalidArgument rejects inputs before any schedule is generated or mutated.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCurrencyMismatch rejects arithmetic or payments across currencies.
	ErrCurrencyMismatch = money.ErrCurrencyMismatch
	// ErrInvalidState rejects a command the owner's status forbids.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadySettled rejects a payment against a line that is already paid.
	ErrAlreadySettled = errors.New("already settled")
	// ErrPeriodClosed is returned when the accounting period gate refuses the date.
	ErrPeriodClosed = errors.New("accounting period closed")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func currencyMismatch(want, got money.Currency) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrCurrencyMismatch, want, got)
}
