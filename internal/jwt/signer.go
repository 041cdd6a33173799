// Package jwt issues and validates the signed bearer tokens of the auth core.
//
// Tokens are compact JWTs signed with HMAC-SHA256 under a single symmetric
// key. Validation enforces signature, issuer, audience and expiry with zero
// clock-skew leeway, then consults the refresh-token store so that access
// tokens whose paired refresh token was revoked die before natural expiry.
package jwt

import (
	"context"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
)

var (
	// ErrTokenExpired indicates a structurally valid token past its exp.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed indicates a token that fails signature, structure,
	// issuer or audience checks.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenRevoked indicates a valid token whose jti was revoked.
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims is the verified content of a bearer token.
type Claims struct {
	Subject   string // account id
	Name      string // username
	Email     string
	Role      string
	FullName  string
	Active    bool
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevocationChecker answers whether an access-token jti has been revoked.
// The refresh-token store implements it.
type RevocationChecker interface {
	IsJTIRevoked(ctx context.Context, jti string) (bool, error)
}

// Signer issues and validates tokens.
type Signer struct {
	Secret      []byte
	Issuer      string
	Audience    string
	AccessTTL   time.Duration
	Revocations RevocationChecker // nil skips the revocation check
}

// NewSigner builds a Signer with the given key material and TTL.
func NewSigner(secret []byte, issuer, audience string, accessTTL time.Duration) *Signer {
	return &Signer{
		Secret:    secret,
		Issuer:    issuer,
		Audience:  audience,
		AccessTTL: accessTTL,
	}
}

// Issue signs an access token for the account under the given jti and
// returns the compact token together with its expiry.
func (s *Signer) Issue(a *repository.Account, jti string, now time.Time) (string, time.Time, error) {
	now = now.UTC()
	exp := now.Add(s.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":       s.Issuer,
		"aud":       s.Audience,
		"sub":       a.ID,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
		"jti":       jti,
		"name":      a.Username,
		"email":     a.Email,
		"role":      string(a.Role),
		"full_name": a.FullName,
		"is_active": a.IsActive,
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate verifies the token and returns its claims. The error is one of
// ErrTokenExpired, ErrTokenMalformed or ErrTokenRevoked; malformed input
// never panics or leaks parser detail.
func (s *Signer) Validate(ctx context.Context, token string) (*Claims, error) {
	tok, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return s.Secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(s.Issuer),
		jwtv5.WithAudience(s.Audience),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !tok.Valid {
		return nil, ErrTokenMalformed
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	c := claimsFromMap(mc)
	if c.Subject == "" || c.JTI == "" {
		return nil, ErrTokenMalformed
	}

	if s.Revocations != nil {
		revoked, err := s.Revocations.IsJTIRevoked(ctx, c.JTI)
		if err != nil {
			// Fail closed: if revocation state is unknown, the token is not
			// accepted.
			return nil, ErrTokenRevoked
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return c, nil
}

func claimsFromMap(mc jwtv5.MapClaims) *Claims {
	c := &Claims{}
	if v, ok := mc["sub"].(string); ok {
		c.Subject = v
	}
	if v, ok := mc["name"].(string); ok {
		c.Name = v
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["role"].(string); ok {
		c.Role = v
	}
	if v, ok := mc["full_name"].(string); ok {
		c.FullName = v
	}
	if v, ok := mc["is_active"].(bool); ok {
		c.Active = v
	}
	if v, ok := mc["jti"].(string); ok {
		c.JTI = v
	}
	if v, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	if v, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(v), 0).UTC()
	}
	return c
}
