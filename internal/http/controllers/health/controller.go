// Package health exposes the liveness endpoint.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gussmann/loyalty-auth/internal/http/helpers"
)

// Pinger is anything with a health check (the store, the cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller handles GET /healthz.
type Controller struct {
	checks map[string]Pinger
}

func NewController() *Controller {
	return &Controller{checks: make(map[string]Pinger)}
}

// Register adds a named dependency to the health check.
func (c *Controller) Register(name string, p Pinger) {
	if p != nil {
		c.checks[name] = p
	}
}

type response struct {
	Status string            `json:"status"` // ok | degraded
	Checks map[string]string `json:"checks,omitempty"`
}

func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response{Status: "ok", Checks: make(map[string]string, len(c.checks))}
	status := http.StatusOK
	for name, p := range c.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	helpers.WriteJSON(w, status, resp)
}
