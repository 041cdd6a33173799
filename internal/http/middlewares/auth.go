package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/gussmann/loyalty-auth/internal/http/errors"
	jwtx "github.com/gussmann/loyalty-auth/internal/jwt"
)

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	ValidateBearerToken(ctx context.Context, token string) (*jwtx.Claims, error)
}

const claimsKey ctxKey = "claims"

// WithBearerAuth rejects requests without a valid Bearer access token and
// stores the claims in the request context.
func WithBearerAuth(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				apperrors.WriteError(w, apperrors.ErrTokenMissing)
				return
			}

			claims, err := v.ValidateBearerToken(r.Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, jwtx.ErrTokenExpired):
					apperrors.WriteError(w, apperrors.ErrTokenExpired)
				default:
					apperrors.WriteError(w, apperrors.ErrTokenInvalid)
				}
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to callers whose token carries one of the given
// roles. Must run after WithBearerAuth.
func RequireRole(roles ...string) Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				apperrors.WriteError(w, apperrors.ErrTokenMissing)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				apperrors.WriteError(w, apperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFrom returns the validated claims stored in ctx, or nil.
func ClaimsFrom(ctx context.Context) *jwtx.Claims {
	c, _ := ctx.Value(claimsKey).(*jwtx.Claims)
	return c
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
