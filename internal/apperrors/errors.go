package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrEmailBusy         = errors.New("email already taken")

	// Base error for every token rejection
	// Wrapped with the reason, e.g. fmt.Errorf("token revoked: %w", ErrInvalidToken)
	ErrInvalidToken = errors.New("invalid token")

	ErrCardNotFound = errors.New("card not found")

	ErrAmountNotPositive  = errors.New("amount must be positive")
	ErrSameCardTransfer   = errors.New("cannot transfer to the same card")
	ErrCardNotActive      = errors.New("one of the cards is not active")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrCardAlreadyBlocked = errors.New("card is already blocked")
	ErrCardAlreadyActive  = errors.New("card is already active")
)

// CardNotFoundError keeps the looked up (masked) number and the owner's email
// so a failed lookup can be traced to the exact card. Matches ErrCardNotFound
// in errors.Is checks.
type CardNotFoundError struct {
	Number     string
	OwnerEmail string
}

func (e *CardNotFoundError) Error() string {
	return fmt.Sprintf("card %q not found for user %s", e.Number, e.OwnerEmail)
}

func (e *CardNotFoundError) Unwrap() error {
	return ErrCardNotFound
}
