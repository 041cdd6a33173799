package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
)

const accountColumns = `id, username, email, password_hash, full_name, role,
	is_active, login_attempts, locked_until, last_login_at, created_at`

func scanAccount(row pgx.Row) (*repository.Account, error) {
	var a repository.Account
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FullName, &a.Role,
		&a.IsActive, &a.LoginAttempts, &a.LockedUntil, &a.LastLoginAt, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*repository.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM admin_account
WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
LIMIT 1`
	return scanAccount(s.pool.QueryRow(ctx, q, identifier))
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM admin_account WHERE id = $1`
	return scanAccount(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) Create(ctx context.Context, a *repository.Account) error {
	const q = `
INSERT INTO admin_account
	(id, username, email, password_hash, full_name, role, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, q,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FullName, a.Role, a.IsActive, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) Update(ctx context.Context, a *repository.Account) error {
	const q = `
UPDATE admin_account
SET password_hash = $2, full_name = $3, role = $4, is_active = $5,
	login_attempts = $6, locked_until = $7, last_login_at = $8
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q,
		a.ID, a.PasswordHash, a.FullName, a.Role, a.IsActive,
		a.LoginAttempts, a.LockedUntil, a.LastLoginAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]repository.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM admin_account ORDER BY LOWER(username)`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Account
	for rows.Next() {
		var a repository.Account
		if err := rows.Scan(
			&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FullName, &a.Role,
			&a.IsActive, &a.LoginAttempts, &a.LockedUntil, &a.LastLoginAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordFailure increments the counter and applies the lockout decision in a
// single statement, so concurrent failed attempts cannot double-apply a
// lockout.
func (s *Store) RecordFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (repository.FailureState, error) {
	const q = `
UPDATE admin_account
SET login_attempts = login_attempts + 1,
	locked_until = CASE
		WHEN login_attempts + 1 >= $2 THEN $3
		ELSE locked_until
	END
WHERE id = $1
RETURNING login_attempts, locked_until`
	var st repository.FailureState
	err := s.pool.QueryRow(ctx, q, id, threshold, lockUntil).Scan(&st.Attempts, &st.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.FailureState{}, repository.ErrNotFound
		}
		return repository.FailureState{}, err
	}
	return st, nil
}

func (s *Store) RecordSuccess(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE admin_account
SET login_attempts = 0, locked_until = NULL, last_login_at = $2
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
