package middlewares

import (
	"net/http"
	"strconv"

	apperrors "github.com/gussmann/loyalty-auth/internal/http/errors"
	"github.com/gussmann/loyalty-auth/internal/observability/logger"
	"github.com/gussmann/loyalty-auth/internal/rate"
)

// WithRateLimit throttles a route per client IP. A nil limiter disables the
// middleware. Limiter backend errors fail open: a broken cache must not take
// the login endpoint down with it.
func WithRateLimit(limiter rate.Limiter) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				apperrors.WriteError(w, apperrors.ErrRateLimitExceeded)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
