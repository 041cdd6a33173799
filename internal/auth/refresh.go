package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	tokens "github.com/gussmann/loyalty-auth/internal/security/token"
)

// refreshTokenBytes is the entropy of an opaque refresh-token value
// (512 bits).
const refreshTokenBytes = 64

// TokenStore enforces single-use rotation over the refresh-token repository.
// It hands out plaintext values and persists only their digests.
type TokenStore struct {
	Repo repository.RefreshTokenRepository
	TTL  time.Duration
}

// NewTokenStore builds a TokenStore; a zero TTL falls back to 30 days.
func NewTokenStore(repo repository.RefreshTokenRepository, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenStore{Repo: repo, TTL: ttl}
}

// Issue mints a fresh refresh token for the account and returns the
// plaintext value, the jti for the paired access token, and the expiry.
func (s *TokenStore) Issue(ctx context.Context, accountID string) (value, jti string, expiresAt time.Time, err error) {
	value, err = tokens.NewOpaque(refreshTokenBytes)
	if err != nil {
		return "", "", time.Time{}, err
	}
	jti = uuid.NewString()
	now := time.Now().UTC()
	expiresAt = now.Add(s.TTL)

	rec := &repository.RefreshToken{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		TokenDigest: tokens.Digest(value),
		JTI:         jti,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	}
	if err := s.Repo.Insert(ctx, rec); err != nil {
		return "", "", time.Time{}, err
	}
	return value, jti, expiresAt, nil
}

// Consume spends the token with the given plaintext value. Exactly one of
// any number of concurrent calls on the same value succeeds; the rest see
// ErrRefreshTokenReused. The record is returned even on reuse/revocation
// errors so the caller can react (revoke-all on theft).
func (s *TokenStore) Consume(ctx context.Context, value string) (*repository.RefreshToken, error) {
	digest := tokens.Digest(value)

	rec, err := s.Repo.GetByDigest(ctx, digest)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, err
	}

	switch {
	case rec.Revoked:
		return rec, ErrRefreshTokenInvalid
	case rec.Used:
		return rec, ErrRefreshTokenReused
	case time.Now().UTC().After(rec.ExpiresAt):
		return rec, ErrRefreshTokenInvalid
	}

	won, err := s.Repo.MarkUsed(ctx, digest)
	if err != nil {
		return rec, err
	}
	if !won {
		// Lost the race against a concurrent consume of the same value.
		return rec, ErrRefreshTokenReused
	}
	return rec, nil
}

// Revoke marks a single token revoked. Idempotent; reports whether a record
// matched.
func (s *TokenStore) Revoke(ctx context.Context, value string) (*repository.RefreshToken, bool, error) {
	digest := tokens.Digest(value)
	rec, err := s.Repo.GetByDigest(ctx, digest)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	found, err := s.Repo.MarkRevoked(ctx, digest)
	if err != nil {
		return rec, false, err
	}
	return rec, found, nil
}

// RevokeAllFor revokes every non-revoked token of the account. Used on
// password change, deactivation and reuse detection.
func (s *TokenStore) RevokeAllFor(ctx context.Context, accountID string) (int, error) {
	return s.Repo.MarkAllRevokedForAccount(ctx, accountID)
}

// IsJTIRevoked implements jwt.RevocationChecker.
func (s *TokenStore) IsJTIRevoked(ctx context.Context, jti string) (bool, error) {
	return s.Repo.IsJTIRevoked(ctx, jti)
}
