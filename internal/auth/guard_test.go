package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	"github.com/gussmann/loyalty-auth/internal/store/memory"
)

func seedGuardAccount(t *testing.T, store *memory.Store) *repository.Account {
	t.Helper()
	a := &repository.Account{
		ID:       "acc-1",
		Username: "carol",
		Email:    "carol@example.com",
		IsActive: true,
	}
	require.NoError(t, store.Create(context.Background(), a))
	return a
}

func TestGuard_LocksAtThreshold(t *testing.T) {
	store := memory.New()
	seedGuardAccount(t, store)
	g := auth.NewGuard(store, 3, 10*time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		st, err := g.RecordFailure(ctx, "acc-1")
		require.NoError(t, err)
		assert.False(t, st.Locked, "attempt %d", i+1)
	}

	st, err := g.RecordFailure(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.InDelta(t, 10*time.Minute, st.Remaining, float64(5*time.Second))
}

func TestGuard_SuccessClearsState(t *testing.T) {
	store := memory.New()
	seedGuardAccount(t, store)
	g := auth.NewGuard(store, 3, 10*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := g.RecordFailure(ctx, "acc-1")
		require.NoError(t, err)
	}
	require.NoError(t, g.RecordSuccess(ctx, "acc-1"))

	a, err := store.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Zero(t, a.LoginAttempts)
	assert.Nil(t, a.LockedUntil)
	assert.NotNil(t, a.LastLoginAt)
}

func TestGuard_CheckLocked(t *testing.T) {
	g := auth.NewGuard(memory.New(), 5, 30*time.Minute)

	locked, _ := g.CheckLocked(&repository.Account{})
	assert.False(t, locked)

	past := time.Now().UTC().Add(-time.Minute)
	locked, _ = g.CheckLocked(&repository.Account{LockedUntil: &past})
	assert.False(t, locked)

	future := time.Now().UTC().Add(5 * time.Minute)
	locked, remaining := g.CheckLocked(&repository.Account{LockedUntil: &future})
	assert.True(t, locked)
	assert.InDelta(t, 5*time.Minute, remaining, float64(time.Second))
}

func TestGuard_ZeroValuesFallBack(t *testing.T) {
	g := auth.NewGuard(memory.New(), 0, 0)
	assert.Equal(t, 5, g.MaxAttempts)
	assert.Equal(t, 30*time.Minute, g.Lockout)
}

func TestGuard_UnknownAccount(t *testing.T) {
	g := auth.NewGuard(memory.New(), 5, 30*time.Minute)
	_, err := g.RecordFailure(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
