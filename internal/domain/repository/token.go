package repository

import (
	"context"
	"time"
)

// RefreshToken is a persisted single-use refresh credential. TokenDigest is
// sha256(value); the plaintext value only ever travels to the caller.
type RefreshToken struct {
	ID          string
	AccountID   string
	TokenDigest string
	JTI         string // access-token id paired with this record
	Used        bool
	Revoked     bool
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// RefreshTokenRepository persists refresh-token records. Records are kept
// after being spent or revoked; history is part of the audit trail.
type RefreshTokenRepository interface {
	// Insert stores a new record. Returns ErrConflict on a digest collision.
	Insert(ctx context.Context, t *RefreshToken) error

	// GetByDigest resolves a record by token digest.
	// Returns ErrNotFound when absent.
	GetByDigest(ctx context.Context, digest string) (*RefreshToken, error)

	// MarkUsed flips used=false to true for the record with the given digest.
	// Returns true only for the call that performed the transition; under
	// concurrent calls on the same digest exactly one caller wins.
	MarkUsed(ctx context.Context, digest string) (bool, error)

	// MarkRevoked revokes the record with the given digest. Idempotent;
	// returns false when no record matches.
	MarkRevoked(ctx context.Context, digest string) (bool, error)

	// MarkAllRevokedForAccount revokes every non-revoked record of the
	// account and returns how many were affected.
	MarkAllRevokedForAccount(ctx context.Context, accountID string) (int, error)

	// IsJTIRevoked reports whether the refresh record paired with jti has
	// been revoked.
	IsJTIRevoked(ctx context.Context, jti string) (bool, error)
}
