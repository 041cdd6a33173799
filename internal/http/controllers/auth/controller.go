// Package auth exposes the authentication endpoints.
package auth

import (
	"errors"
	"net/http"
	"strconv"

	authsvc "github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/http/dto"
	apperrors "github.com/gussmann/loyalty-auth/internal/http/errors"
	"github.com/gussmann/loyalty-auth/internal/http/helpers"
	"github.com/gussmann/loyalty-auth/internal/http/middlewares"
)

// Controller handles /v1/auth.
type Controller struct {
	Service *authsvc.Service
}

func NewController(service *authsvc.Service) *Controller {
	return &Controller{Service: service}
}

func clientMeta(r *http.Request) authsvc.ClientMeta {
	return authsvc.ClientMeta{
		IP:        middlewares.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func tokenPair(res *authsvc.LoginResult) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:   res.AccessToken,
		RefreshToken:  res.RefreshToken,
		TokenType:     "Bearer",
		AccessExpiry:  res.AccessExpiry,
		RefreshExpiry: res.RefreshExpiry,
		Account:       dto.FromAccount(res.Account),
	}
}

// Login handles POST /v1/auth/login.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields)
		return
	}

	res, err := c.Service.Login(r.Context(), req.Identifier, req.Password, clientMeta(r))
	if err != nil {
		var locked *authsvc.LockedError
		switch {
		case errors.As(err, &locked):
			w.Header().Set("Retry-After", strconv.Itoa(locked.RemainingMinutes()*60))
			apperrors.WriteError(w, apperrors.ErrAccountLocked.WithDetail(locked.Error()))
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			apperrors.WriteError(w, apperrors.ErrInvalidCredentials)
		default:
			apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, tokenPair(res))
}

// Refresh handles POST /v1/auth/refresh.
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	if req.RefreshToken == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields)
		return
	}

	res, err := c.Service.Refresh(r.Context(), req.RefreshToken, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrRefreshTokenReused),
			errors.Is(err, authsvc.ErrRefreshTokenInvalid):
			apperrors.WriteError(w, apperrors.ErrRefreshInvalid)
		case errors.Is(err, authsvc.ErrAccountInactive):
			apperrors.WriteError(w, apperrors.ErrAccountInactive)
		default:
			apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, tokenPair(res))
}

// Logout handles POST /v1/auth/logout. Always succeeds; whether the token
// existed is not revealed.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	if _, err := c.Service.Logout(r.Context(), req.RefreshToken, clientMeta(r)); err != nil {
		apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// Me handles GET /v1/auth/me. Requires WithBearerAuth.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	claims := middlewares.ClaimsFrom(r.Context())
	if claims == nil {
		apperrors.WriteError(w, apperrors.ErrTokenMissing)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MeResponse{
		AccountID: claims.Subject,
		Username:  claims.Name,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      claims.Role,
		IsActive:  claims.Active,
	})
}

// ChangePassword handles PUT /v1/auth/password. Requires WithBearerAuth.
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middlewares.ClaimsFrom(r.Context())
	if claims == nil {
		apperrors.WriteError(w, apperrors.ErrTokenMissing)
		return
	}

	var req dto.ChangePasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields)
		return
	}

	err := c.Service.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			apperrors.WriteError(w, apperrors.ErrInvalidCredentials)
		case errors.Is(err, authsvc.ErrAccountInactive):
			apperrors.WriteError(w, apperrors.ErrAccountInactive)
		default:
			apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "password changed"})
}

// ResetPassword handles POST /v1/auth/password/reset. The response never
// reveals whether the email exists.
func (c *Controller) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	if req.Email == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields)
		return
	}

	if err := c.Service.ResetPassword(r.Context(), req.Email, clientMeta(r)); err != nil {
		apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "if the email is registered, a temporary password has been sent",
	})
}
