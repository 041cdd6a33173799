package jwt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	jwtx "github.com/gussmann/loyalty-auth/internal/jwt"
)

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsJTIRevoked(ctx context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

func testAccount() *repository.Account {
	return &repository.Account{
		ID:       "acc-1",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Role:     repository.RoleAdmin,
		IsActive: true,
	}
}

func newSigner(ttl time.Duration) *jwtx.Signer {
	return jwtx.NewSigner([]byte("unit-test-secret"), "GussmannLoyaltyProgram", "GussmannLoyaltyUsers", ttl)
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	s := newSigner(15 * time.Minute)
	now := time.Now()

	signed, exp, err := s.Issue(testAccount(), "jti-1", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Minute), exp, time.Second)

	c, err := s.Validate(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", c.Subject)
	assert.Equal(t, "alice", c.Name)
	assert.Equal(t, "alice@example.com", c.Email)
	assert.Equal(t, "Admin", c.Role)
	assert.Equal(t, "Alice Example", c.FullName)
	assert.True(t, c.Active)
	assert.Equal(t, "jti-1", c.JTI)
	assert.WithinDuration(t, exp, c.ExpiresAt, time.Second)
}

func TestValidate_Expired(t *testing.T) {
	s := newSigner(time.Minute)
	signed, _, err := s.Issue(testAccount(), "jti-1", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = s.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, jwtx.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	s := newSigner(time.Minute)
	signed, _, err := s.Issue(testAccount(), "jti-1", time.Now())
	require.NoError(t, err)

	other := jwtx.NewSigner([]byte("another-secret"), s.Issuer, s.Audience, time.Minute)
	_, err = other.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, jwtx.ErrTokenMalformed)
}

func TestValidate_WrongIssuerAudience(t *testing.T) {
	s := newSigner(time.Minute)
	signed, _, err := s.Issue(testAccount(), "jti-1", time.Now())
	require.NoError(t, err)

	badIss := jwtx.NewSigner(s.Secret, "SomeoneElse", s.Audience, time.Minute)
	_, err = badIss.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, jwtx.ErrTokenMalformed)

	badAud := jwtx.NewSigner(s.Secret, s.Issuer, "OtherAudience", time.Minute)
	_, err = badAud.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, jwtx.ErrTokenMalformed)
}

func TestValidate_Malformed(t *testing.T) {
	s := newSigner(time.Minute)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := s.Validate(context.Background(), tok)
		assert.ErrorIs(t, err, jwtx.ErrTokenMalformed, "token=%q", tok)
	}
}

func TestValidate_RevokedJTI(t *testing.T) {
	s := newSigner(time.Minute)
	s.Revocations = &fakeRevocations{revoked: map[string]bool{"jti-revoked": true}}

	revoked, _, err := s.Issue(testAccount(), "jti-revoked", time.Now())
	require.NoError(t, err)
	live, _, err := s.Issue(testAccount(), "jti-live", time.Now())
	require.NoError(t, err)

	_, err = s.Validate(context.Background(), revoked)
	assert.ErrorIs(t, err, jwtx.ErrTokenRevoked)

	_, err = s.Validate(context.Background(), live)
	assert.NoError(t, err)
}

func TestValidate_RevocationCheckFailsClosed(t *testing.T) {
	s := newSigner(time.Minute)
	s.Revocations = &fakeRevocations{err: assert.AnError}

	signed, _, err := s.Issue(testAccount(), "jti-1", time.Now())
	require.NoError(t, err)

	_, err = s.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, jwtx.ErrTokenRevoked)
}
