package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrNotFound     = errors.New("resource not found")
	ErrInternal     = errors.New("internal server error")
	ErrRateLimited  = errors.New("too many requests")
	ErrPersistence  = errors.New("persistence failure")

	// Phone login flow
	ErrProvider          = errors.New("telegram provider failure")
	ErrInvalidCode       = errors.New("verification code invalid")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrTwoFactorRequired = errors.New("two-factor authentication required")
	ErrPhoneUnoccupied   = errors.New("phone number not registered on telegram")
	ErrLoginExpired      = errors.New("login attempt expired")
	ErrHandleMismatch    = errors.New("login handle does not match in-flight login")
	ErrNoActiveSession   = errors.New("no active phone session")
	ErrSessionExpired    = errors.New("phone session expired or revoked")
)

// FloodWaitError is a provider flood limit carrying the wait Telegram asked for.
type FloodWaitError struct {
	Seconds int
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %d seconds", e.Seconds)
}

// FloodWaitError is retryable, so it matches ErrProvider in errors.Is chains.
func (e *FloodWaitError) Is(target error) bool {
	return target == ErrProvider
}

// AsFloodWait extracts a FloodWaitError from an error chain.
func AsFloodWait(err error) (*FloodWaitError, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw, true
	}
	return nil, false
}
