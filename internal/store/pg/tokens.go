package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
)

func (s *Store) Insert(ctx context.Context, t *repository.RefreshToken) error {
	const q = `
INSERT INTO refresh_token
	(id, account_id, token_digest, jti, used, revoked, issued_at, expires_at)
VALUES ($1, $2, $3, $4, FALSE, FALSE, $5, $6)`
	_, err := s.pool.Exec(ctx, q, t.ID, t.AccountID, t.TokenDigest, t.JTI, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetByDigest(ctx context.Context, digest string) (*repository.RefreshToken, error) {
	const q = `
SELECT id, account_id, token_digest, jti, used, revoked, issued_at, expires_at
FROM refresh_token
WHERE token_digest = $1`
	var t repository.RefreshToken
	err := s.pool.QueryRow(ctx, q, digest).Scan(
		&t.ID, &t.AccountID, &t.TokenDigest, &t.JTI, &t.Used, &t.Revoked, &t.IssuedAt, &t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkUsed is the rotation linchpin: the conditional update serializes
// concurrent consume calls per token value, and the affected-row count
// picks the single winner.
func (s *Store) MarkUsed(ctx context.Context, digest string) (bool, error) {
	const q = `
UPDATE refresh_token
SET used = TRUE
WHERE token_digest = $1 AND used = FALSE AND revoked = FALSE`
	tag, err := s.pool.Exec(ctx, q, digest)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkRevoked(ctx context.Context, digest string) (bool, error) {
	const q = `UPDATE refresh_token SET revoked = TRUE WHERE token_digest = $1`
	tag, err := s.pool.Exec(ctx, q, digest)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkAllRevokedForAccount(ctx context.Context, accountID string) (int, error) {
	const q = `UPDATE refresh_token SET revoked = TRUE WHERE account_id = $1 AND revoked = FALSE`
	tag, err := s.pool.Exec(ctx, q, accountID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) IsJTIRevoked(ctx context.Context, jti string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM refresh_token WHERE jti = $1 AND revoked = TRUE)`
	var revoked bool
	if err := s.pool.QueryRow(ctx, q, jti).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}
