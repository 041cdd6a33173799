// Package admin exposes the account management endpoints. Every route is
// gated behind WithBearerAuth plus an admin role check in the router.
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	"github.com/gussmann/loyalty-auth/internal/http/dto"
	apperrors "github.com/gussmann/loyalty-auth/internal/http/errors"
	"github.com/gussmann/loyalty-auth/internal/http/helpers"
	"github.com/gussmann/loyalty-auth/internal/http/middlewares"
)

// Controller handles /v1/admin/accounts.
type Controller struct {
	Service *authsvc.Service
}

func NewController(service *authsvc.Service) *Controller {
	return &Controller{Service: service}
}

// List handles GET /v1/admin/accounts.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := c.Service.ListAccounts(r.Context())
	if err != nil {
		apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		return
	}

	out := make([]dto.Account, len(accounts))
	for i := range accounts {
		out[i] = dto.FromAccount(&accounts[i])
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AccountListResponse{Accounts: out, Total: len(out)})
}

// Create handles POST /v1/admin/accounts.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	a, err := c.Service.CreateAccount(r.Context(), authsvc.CreateAccountInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     repository.Role(req.Role),
	}, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidInput):
			apperrors.WriteError(w, apperrors.ErrMissingFields)
		case errors.Is(err, repository.ErrConflict):
			apperrors.WriteError(w, apperrors.ErrConflict.WithDetail("username or email already in use"))
		default:
			apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		}
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.FromAccount(a))
}

// SetStatus handles PUT /v1/admin/accounts/{id}/status.
func (c *Controller) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest)
		return
	}

	var req dto.SetAccountStatusRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	if err := c.Service.SetAccountActive(r.Context(), id, req.IsActive, clientMeta(r)); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			apperrors.WriteError(w, apperrors.ErrNotFound)
		default:
			apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "account status updated"})
}

func clientMeta(r *http.Request) authsvc.ClientMeta {
	return authsvc.ClientMeta{
		IP:        middlewares.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
