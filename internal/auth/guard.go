package auth

import (
	"context"
	"time"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
)

// Guard tracks failed-login counters and lockout windows per account.
// Counters are per-account, not per-IP; distributed rate limiting is the
// HTTP layer's concern.
type Guard struct {
	Accounts    repository.AccountRepository
	MaxAttempts int
	Lockout     time.Duration
}

// LockState is the outcome of a failure record.
type LockState struct {
	Locked    bool
	Remaining time.Duration
}

// NewGuard builds a Guard; zero values fall back to 5 attempts / 30 minutes.
func NewGuard(accounts repository.AccountRepository, maxAttempts int, lockout time.Duration) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}
	return &Guard{Accounts: accounts, MaxAttempts: maxAttempts, Lockout: lockout}
}

// RecordFailure increments the account's failure counter. When the counter
// reaches the threshold the account is locked until now+Lockout. The
// increment is atomic in the store.
func (g *Guard) RecordFailure(ctx context.Context, accountID string) (LockState, error) {
	now := time.Now().UTC()
	st, err := g.Accounts.RecordFailure(ctx, accountID, g.MaxAttempts, now.Add(g.Lockout))
	if err != nil {
		return LockState{}, err
	}
	if st.LockedUntil != nil && st.LockedUntil.After(now) {
		return LockState{Locked: true, Remaining: st.LockedUntil.Sub(now)}, nil
	}
	return LockState{}, nil
}

// RecordSuccess resets the counter, clears the lockout and stamps the login
// time.
func (g *Guard) RecordSuccess(ctx context.Context, accountID string) error {
	return g.Accounts.RecordSuccess(ctx, accountID, time.Now().UTC())
}

// CheckLocked reports whether the account is currently locked and, if so,
// for how much longer.
func (g *Guard) CheckLocked(a *repository.Account) (bool, time.Duration) {
	if a.LockedUntil == nil {
		return false, 0
	}
	now := time.Now().UTC()
	if a.LockedUntil.After(now) {
		return true, a.LockedUntil.Sub(now)
	}
	return false, 0
}
