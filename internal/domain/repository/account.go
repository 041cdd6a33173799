package repository

import (
	"context"
	"time"
)

// Role is an administrative role.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// Account is an identity subject to authentication. Accounts are never
// physically deleted; deactivation clears IsActive.
type Account struct {
	ID            string
	Username      string // unique, case-insensitive
	Email         string // unique, case-insensitive
	PasswordHash  string // opaque salt.digest pair
	FullName      string
	Role          Role
	IsActive      bool
	LoginAttempts int
	LockedUntil   *time.Time
	LastLoginAt   *time.Time
	CreatedAt     time.Time
}

// FailureState is the outcome of an atomic failed-login increment.
type FailureState struct {
	Attempts    int
	LockedUntil *time.Time
}

// AccountRepository persists admin accounts.
type AccountRepository interface {
	// GetByIdentifier resolves an account by username or email,
	// case-insensitively. Returns ErrNotFound when absent.
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)

	// GetByID resolves an account by id. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*Account, error)

	// Create inserts a new account. Returns ErrConflict when the username or
	// email is already taken (case-insensitively).
	Create(ctx context.Context, a *Account) error

	// Update persists mutable account fields (password hash, active flag,
	// counters, timestamps). Returns ErrNotFound when absent.
	Update(ctx context.Context, a *Account) error

	// List returns all accounts ordered by username.
	List(ctx context.Context) ([]Account, error)

	// RecordFailure atomically increments the failed-login counter and, when
	// the counter reaches threshold, sets locked_until to lockUntil. The
	// increment and the lockout decision happen in a single statement so
	// concurrent failures never double-apply a lockout.
	RecordFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (FailureState, error)

	// RecordSuccess resets the counter, clears any lockout and stamps
	// last_login_at.
	RecordSuccess(ctx context.Context, id string, at time.Time) error
}
