package auth

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy of the auth core. Callers map these to wire responses;
// anything not listed here is converted to ErrInternal before crossing the
// boundary.
var (
	// ErrInvalidCredentials covers unknown identifier, inactive account and
	// wrong password alike, so a caller cannot tell which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is the base error matched by LockedError.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountInactive indicates a deactivated account on a flow that may
	// disclose it (refresh, change-password).
	ErrAccountInactive = errors.New("account inactive")

	// ErrRefreshTokenInvalid covers unknown, expired and revoked refresh
	// tokens presented to refresh.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")

	// ErrRefreshTokenReused indicates a spent refresh token was presented
	// again. Likely theft; the owning account's tokens are revoked.
	ErrRefreshTokenReused = errors.New("refresh token reused")

	// ErrInternal is the generic fail-closed error. Detail goes to the error
	// log, never to the caller.
	ErrInternal = errors.New("internal error")
)

// LockedError carries the remaining lockout duration. It matches
// ErrAccountLocked under errors.Is.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", remainingMinutes(e.Remaining))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// RemainingMinutes is the remaining lockout rounded up to whole minutes,
// for user-facing messages.
func (e *LockedError) RemainingMinutes() int {
	return remainingMinutes(e.Remaining)
}

func remainingMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}
