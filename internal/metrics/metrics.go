// Package metrics registers the Prometheus instruments of the auth core.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth groups the auth-core counters. A nil *Auth is a no-op so the service
// works without metrics wired (tests, CLI commands).
type Auth struct {
	logins       *prometheus.CounterVec
	lockouts     prometheus.Counter
	tokensIssued *prometheus.CounterVec
	refreshReuse prometheus.Counter
	validations  *prometheus.CounterVec
}

var (
	authOnce sync.Once
	authInst *Auth
)

// NewAuth registers the auth counters on the given registerer (default
// registerer when nil) and returns the singleton instance.
func NewAuth(reg prometheus.Registerer) *Auth {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	authOnce.Do(func() {
		a := &Auth{
			logins: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Login attempts by result",
			}, []string{"result"}), // success|invalid|locked|error
			lockouts: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "auth_lockouts_total",
				Help: "Accounts locked after repeated failures",
			}),
			tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "auth_tokens_issued_total",
				Help: "Tokens issued by kind",
			}, []string{"kind"}), // access|refresh
			refreshReuse: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "auth_refresh_reuse_total",
				Help: "Spent refresh tokens presented again",
			}),
			validations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "auth_token_validations_total",
				Help: "Bearer-token validations by result",
			}, []string{"result"}), // ok|expired|malformed|revoked
		}
		reg.MustRegister(a.logins, a.lockouts, a.tokensIssued, a.refreshReuse, a.validations)
		authInst = a
	})
	return authInst
}

// Login counts a login attempt outcome.
func (a *Auth) Login(result string) {
	if a == nil {
		return
	}
	a.logins.WithLabelValues(result).Inc()
}

// Lockout counts a lockout being applied.
func (a *Auth) Lockout() {
	if a == nil {
		return
	}
	a.lockouts.Inc()
}

// TokenIssued counts an issued token of the given kind.
func (a *Auth) TokenIssued(kind string) {
	if a == nil {
		return
	}
	a.tokensIssued.WithLabelValues(kind).Inc()
}

// RefreshReuse counts a detected refresh-token replay.
func (a *Auth) RefreshReuse() {
	if a == nil {
		return
	}
	a.refreshReuse.Inc()
}

// Validation counts a bearer-token validation outcome.
func (a *Auth) Validation(result string) {
	if a == nil {
		return
	}
	a.validations.WithLabelValues(result).Inc()
}
