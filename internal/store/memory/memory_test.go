package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	"github.com/gussmann/loyalty-auth/internal/store/memory"
)

func seedAccount(t *testing.T, s *memory.Store, id, username, email string) {
	t.Helper()
	err := s.Create(context.Background(), &repository.Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "x.y",
		Role:         repository.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestGetByIdentifier_CaseInsensitive(t *testing.T) {
	s := memory.New()
	seedAccount(t, s, "a1", "Alice", "Alice@Example.com")

	for _, id := range []string{"alice", "ALICE", "alice@example.com", "Alice@Example.COM"} {
		a, err := s.GetByIdentifier(context.Background(), id)
		require.NoError(t, err, "identifier=%q", id)
		assert.Equal(t, "a1", a.ID)
	}

	_, err := s.GetByIdentifier(context.Background(), "bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreate_DuplicateConflicts(t *testing.T) {
	s := memory.New()
	seedAccount(t, s, "a1", "alice", "alice@example.com")

	err := s.Create(context.Background(), &repository.Account{
		ID: "a2", Username: "ALICE", Email: "other@example.com", PasswordHash: "x.y",
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = s.Create(context.Background(), &repository.Account{
		ID: "a3", Username: "bob", Email: "Alice@Example.com", PasswordHash: "x.y",
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestRecordFailure_ThresholdLocks(t *testing.T) {
	s := memory.New()
	seedAccount(t, s, "a1", "alice", "alice@example.com")
	lockUntil := time.Now().UTC().Add(30 * time.Minute)

	for i := 1; i <= 4; i++ {
		st, err := s.RecordFailure(context.Background(), "a1", 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, i, st.Attempts)
		assert.Nil(t, st.LockedUntil)
	}

	st, err := s.RecordFailure(context.Background(), "a1", 5, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Attempts)
	require.NotNil(t, st.LockedUntil)
	assert.WithinDuration(t, lockUntil, *st.LockedUntil, time.Second)
}

func TestRecordSuccess_Resets(t *testing.T) {
	s := memory.New()
	seedAccount(t, s, "a1", "alice", "alice@example.com")
	lockUntil := time.Now().UTC().Add(30 * time.Minute)
	for i := 0; i < 5; i++ {
		_, err := s.RecordFailure(context.Background(), "a1", 5, lockUntil)
		require.NoError(t, err)
	}

	require.NoError(t, s.RecordSuccess(context.Background(), "a1", time.Now().UTC()))

	a, err := s.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Zero(t, a.LoginAttempts)
	assert.Nil(t, a.LockedUntil)
	assert.NotNil(t, a.LastLoginAt)
}

func TestMarkUsed_ExactlyOnceUnderConcurrency(t *testing.T) {
	s := memory.New()
	rec := &repository.RefreshToken{
		ID:          "t1",
		AccountID:   "a1",
		TokenDigest: "digest-1",
		JTI:         "jti-1",
		IssuedAt:    time.Now().UTC(),
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, s.Insert(context.Background(), rec))

	const callers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.MarkUsed(context.Background(), "digest-1")
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent consume must win")
}

func TestMarkAllRevokedForAccount(t *testing.T) {
	s := memory.New()
	now := time.Now().UTC()
	for _, d := range []string{"d1", "d2", "d3"} {
		require.NoError(t, s.Insert(context.Background(), &repository.RefreshToken{
			ID: d, AccountID: "a1", TokenDigest: d, JTI: "jti-" + d,
			IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
	}
	require.NoError(t, s.Insert(context.Background(), &repository.RefreshToken{
		ID: "other", AccountID: "a2", TokenDigest: "d-other", JTI: "jti-other",
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	n, err := s.MarkAllRevokedForAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Idempotent: nothing left to revoke.
	n, err = s.MarkAllRevokedForAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Zero(t, n)

	revoked, err := s.IsJTIRevoked(context.Background(), "jti-d1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsJTIRevoked(context.Background(), "jti-other")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMarkUsed_RevokedTokenNeverWins(t *testing.T) {
	s := memory.New()
	now := time.Now().UTC()
	require.NoError(t, s.Insert(context.Background(), &repository.RefreshToken{
		ID: "t1", AccountID: "a1", TokenDigest: "d1", JTI: "j1",
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	found, err := s.MarkRevoked(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, found)

	won, err := s.MarkUsed(context.Background(), "d1")
	require.NoError(t, err)
	assert.False(t, won)
}
