package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/cache"
	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	"github.com/gussmann/loyalty-auth/internal/http/dto"
	"github.com/gussmann/loyalty-auth/internal/http/router"
	jwtx "github.com/gussmann/loyalty-auth/internal/jwt"
	"github.com/gussmann/loyalty-auth/internal/rate"
	"github.com/gussmann/loyalty-auth/internal/security/password"
	"github.com/gussmann/loyalty-auth/internal/store/memory"
)

type testAPI struct {
	store   *memory.Store
	handler http.Handler
}

func newTestAPI(t *testing.T, deps func(*router.Deps)) *testAPI {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenStore(store, 720*time.Hour)
	signer := jwtx.NewSigner([]byte("test-secret"), "GussmannLoyaltyProgram", "GussmannLoyaltyUsers", 15*time.Minute)
	signer.Revocations = tokens
	svc := auth.NewService(auth.Deps{
		Accounts: store,
		Audit:    store,
		Store:    tokens,
		Signer:   signer,
		Guard:    auth.NewGuard(store, 5, 30*time.Minute),
	})

	d := router.Deps{Service: svc}
	if deps != nil {
		deps(&d)
	}
	return &testAPI{store: store, handler: router.New(d)}
}

func (api *testAPI) seed(t *testing.T, username, pass string, role repository.Role) {
	t.Helper()
	hash, err := password.Hash(password.Default, pass)
	require.NoError(t, err)
	require.NoError(t, api.store.Create(context.Background(), &repository.Account{
		ID:           "acc-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}))
}

func (api *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

func (api *testAPI) login(t *testing.T, identifier, pass string) dto.TokenPairResponse {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Identifier: identifier, Password: pass}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)

	out := api.login(t, "alice", "Secr3t!")
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Equal(t, "alice", out.Account.Username)

	rec := api.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Identifier: "alice", Password: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Identifier: "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint_Lockout(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)

	for i := 0; i < 5; i++ {
		rec := api.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Identifier: "alice", Password: "nope"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := api.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Identifier: "alice", Password: "Secr3t!"}, "")
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)
	first := api.login(t, "alice", "Secr3t!")

	rec := api.do(t, http.MethodPost, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: first.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var second dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Replaying the spent token is a 401.
	rec = api.do(t, http.MethodPost, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: first.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/logout", dto.LogoutRequest{RefreshToken: second.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: second.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)
	out := api.login(t, "alice", "Secr3t!")

	rec := api.do(t, http.MethodGet, "/v1/auth/me", nil, out.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me dto.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "acc-alice", me.AccountID)
	assert.Equal(t, "alice", me.Username)

	rec = api.do(t, http.MethodGet, "/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(t, http.MethodGet, "/v1/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)
	out := api.login(t, "alice", "Secr3t!")

	rec := api.do(t, http.MethodPut, "/v1/auth/password",
		dto.ChangePasswordRequest{CurrentPassword: "Secr3t!", NewPassword: "N3wSecret!"}, out.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	api.login(t, "alice", "N3wSecret!")
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)
	api.seed(t, "viewer", "Secr3t!", repository.Role("Viewer"))
	admin := api.login(t, "alice", "Secr3t!")

	rec := api.do(t, http.MethodPost, "/v1/admin/accounts", dto.CreateAccountRequest{
		Username: "bob", Email: "bob@example.com", Password: "B0bSecret!", FullName: "Bob Builder",
	}, admin.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bob dto.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bob))

	rec = api.do(t, http.MethodGet, "/v1/admin/accounts/", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.AccountListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Total)

	// Deactivate bob; his login stops working.
	rec = api.do(t, http.MethodPut, "/v1/admin/accounts/"+bob.ID+"/status", dto.SetAccountStatusRequest{IsActive: false}, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Identifier: "bob", Password: "B0bSecret!"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Non-admin roles are rejected.
	viewer := api.login(t, "viewer", "Secr3t!")
	rec = api.do(t, http.MethodGet, "/v1/admin/accounts/", nil, viewer.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Anonymous is rejected.
	rec = api.do(t, http.MethodGet, "/v1/admin/accounts/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEndpoint_RateLimit(t *testing.T) {
	api := newTestAPI(t, func(d *router.Deps) {
		d.LoginLimiter = rate.NewFixedWindow(cache.NewMemory("test", 0), "rl", 2, time.Minute)
	})
	api.seed(t, "alice", "Secr3t!", repository.RoleAdmin)

	body := dto.LoginRequest{Identifier: "alice", Password: "nope"}
	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodPost, "/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := api.do(t, http.MethodPost, "/v1/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
