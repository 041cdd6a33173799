// Package auth implements the authentication core: credential verification,
// token issuance and rotation, account lockout and audit.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	jwtx "github.com/gussmann/loyalty-auth/internal/jwt"
	"github.com/gussmann/loyalty-auth/internal/metrics"
	"github.com/gussmann/loyalty-auth/internal/notify"
	"github.com/gussmann/loyalty-auth/internal/observability/logger"
	"github.com/gussmann/loyalty-auth/internal/security/password"
	tokens "github.com/gussmann/loyalty-auth/internal/security/token"
)

// tempPasswordLen is the length of reset-issued temporary passwords.
const tempPasswordLen = 12

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Accounts repository.AccountRepository
	Audit    repository.AuditSink
	Store    *TokenStore
	Signer   *jwtx.Signer
	Guard    *Guard
	Notifier notify.Notifier // nil = notify.Noop
	Metrics  *metrics.Auth   // nil = no-op
}

// Service is the auth orchestrator. All methods are safe for concurrent use;
// shared state lives in the repositories, which every call re-reads.
type Service struct {
	deps Deps
}

// NewService builds the orchestrator.
func NewService(deps Deps) *Service {
	if deps.Notifier == nil {
		deps.Notifier = notify.Noop{}
	}
	return &Service{deps: deps}
}

// ClientMeta carries request attribution for audit entries.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// LoginResult is the outcome of a successful login or refresh.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
	Account       *repository.Account
}

// Login verifies credentials and mints an access/refresh token pair.
//
// Failure modes: ErrInvalidCredentials (unknown identifier, inactive account
// or wrong password — indistinguishable on purpose), *LockedError while the
// lockout window is open, ErrInternal on any unexpected failure.
func (s *Service) Login(ctx context.Context, identifier, plainPassword string, meta ClientMeta) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Login"),
	)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plainPassword == "" {
		s.deps.Metrics.Login("invalid")
		return nil, ErrInvalidCredentials
	}

	a, err := s.deps.Accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("unknown identifier")
			s.deps.Metrics.Login("invalid")
			return nil, ErrInvalidCredentials
		}
		log.Error("account lookup failed", logger.Err(err))
		s.deps.Metrics.Login("error")
		return nil, ErrInternal
	}

	log = log.With(logger.AccountID(a.ID))

	if !a.IsActive {
		log.Info("login on inactive account")
		s.deps.Metrics.Login("invalid")
		return nil, ErrInvalidCredentials
	}

	if locked, remaining := s.deps.Guard.CheckLocked(a); locked {
		// No password check while locked: a correct guess must not be
		// observable, and a wrong one must not extend the window.
		log.Info("login on locked account")
		s.deps.Metrics.Login("locked")
		return nil, &LockedError{Remaining: remaining}
	}

	if !password.Verify(plainPassword, a.PasswordHash) {
		st, gerr := s.deps.Guard.RecordFailure(ctx, a.ID)
		if gerr != nil {
			log.Error("failure record failed", logger.Err(gerr))
			s.deps.Metrics.Login("error")
			return nil, ErrInternal
		}
		s.audit(ctx, a.ID, ActionLoginFailed, "failed login attempt", meta)
		if st.Locked {
			log.Warn("account locked after repeated failures")
			s.deps.Metrics.Lockout()
			s.audit(ctx, a.ID, ActionAccountLocked, "locked after repeated failed logins", meta)
		}
		s.deps.Metrics.Login("invalid")
		return nil, ErrInvalidCredentials
	}

	if err := s.deps.Guard.RecordSuccess(ctx, a.ID); err != nil {
		log.Error("success record failed", logger.Err(err))
		s.deps.Metrics.Login("error")
		return nil, ErrInternal
	}

	res, err := s.issuePair(ctx, a)
	if err != nil {
		log.Error("token issuance failed", logger.Err(err))
		s.deps.Metrics.Login("error")
		return nil, ErrInternal
	}

	s.audit(ctx, a.ID, ActionLoginSuccess, "successful login", meta)
	s.deps.Metrics.Login("success")
	log.Info("login successful")
	return res, nil
}

// Refresh consumes a refresh token and, if it was live, rotates it into a
// fresh access/refresh pair. A spent token triggers the theft response:
// every token of the owning account is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Refresh"),
	)

	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshTokenInvalid
	}

	rec, err := s.deps.Store.Consume(ctx, refreshToken)
	switch {
	case err == nil:
		// consumed below
	case errors.Is(err, ErrRefreshTokenReused):
		log.Warn("refresh token replay detected", logger.AccountID(rec.AccountID))
		s.deps.Metrics.RefreshReuse()
		if _, rerr := s.deps.Store.RevokeAllFor(ctx, rec.AccountID); rerr != nil {
			log.Error("revoke-all after replay failed", logger.Err(rerr))
		}
		s.audit(ctx, rec.AccountID, ActionTokenReuse, "spent refresh token presented again; all sessions revoked", meta)
		return nil, ErrRefreshTokenReused
	case errors.Is(err, ErrRefreshTokenInvalid):
		return nil, ErrRefreshTokenInvalid
	default:
		log.Error("refresh consume failed", logger.Err(err))
		return nil, ErrInternal
	}

	a, err := s.deps.Accounts.GetByID(ctx, rec.AccountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRefreshTokenInvalid
		}
		log.Error("account lookup failed", logger.Err(err))
		return nil, ErrInternal
	}
	if !a.IsActive {
		return nil, ErrAccountInactive
	}

	res, err := s.issuePair(ctx, a)
	if err != nil {
		log.Error("token issuance failed", logger.Err(err))
		return nil, ErrInternal
	}

	s.audit(ctx, a.ID, ActionTokenRefresh, "access token refreshed", meta)
	log.Info("tokens rotated", logger.AccountID(a.ID))
	return res, nil
}

// Logout revokes the presented refresh token. Reports whether a matching
// token existed; unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string, meta ClientMeta) (bool, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Logout"),
	)

	rec, found, err := s.deps.Store.Revoke(ctx, refreshToken)
	if err != nil {
		log.Error("revoke failed", logger.Err(err))
		return false, ErrInternal
	}
	if !found {
		return false, nil
	}

	s.audit(ctx, rec.AccountID, ActionLogout, "session ended", meta)
	log.Info("logout", logger.AccountID(rec.AccountID))
	return true, nil
}

// ChangePassword verifies the current password, stores a hash of the new
// one and revokes every refresh token of the account so all sessions must
// re-authenticate.
func (s *Service) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string, meta ClientMeta) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("ChangePassword"),
		logger.AccountID(accountID),
	)

	if newPassword == "" {
		return ErrInvalidCredentials
	}

	a, err := s.deps.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidCredentials
		}
		log.Error("account lookup failed", logger.Err(err))
		return ErrInternal
	}
	if !a.IsActive {
		return ErrAccountInactive
	}
	if !password.Verify(currentPassword, a.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := password.Hash(password.Default, newPassword)
	if err != nil {
		log.Error("hashing failed", logger.Err(err))
		return ErrInternal
	}
	a.PasswordHash = hash
	if err := s.deps.Accounts.Update(ctx, a); err != nil {
		log.Error("account update failed", logger.Err(err))
		return ErrInternal
	}

	if _, err := s.deps.Store.RevokeAllFor(ctx, a.ID); err != nil {
		log.Error("revoke-all failed", logger.Err(err))
		return ErrInternal
	}

	s.audit(ctx, a.ID, ActionPasswordChanged, "password changed", meta)
	log.Info("password changed")
	return nil
}

// ResetPassword rotates the account credential to a random temporary
// password and hands it to the notifier for out-of-band delivery. The
// temporary password is never logged. Unknown emails return success so the
// endpoint cannot be used to enumerate accounts.
func (s *Service) ResetPassword(ctx context.Context, email string, meta ClientMeta) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("ResetPassword"),
	)

	a, err := s.deps.Accounts.GetByIdentifier(ctx, strings.TrimSpace(email))
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("reset for unknown email")
			return nil
		}
		log.Error("account lookup failed", logger.Err(err))
		return ErrInternal
	}

	temp, err := tokens.NewTemporaryPassword(tempPasswordLen)
	if err != nil {
		log.Error("temp password generation failed", logger.Err(err))
		return ErrInternal
	}
	hash, err := password.Hash(password.Default, temp)
	if err != nil {
		log.Error("hashing failed", logger.Err(err))
		return ErrInternal
	}

	a.PasswordHash = hash
	a.LoginAttempts = 0
	a.LockedUntil = nil
	if err := s.deps.Accounts.Update(ctx, a); err != nil {
		log.Error("account update failed", logger.Err(err))
		return ErrInternal
	}

	if _, err := s.deps.Store.RevokeAllFor(ctx, a.ID); err != nil {
		log.Error("revoke-all failed", logger.Err(err))
		return ErrInternal
	}

	if err := s.deps.Notifier.SendTemporaryPassword(ctx, a.Email, a.FullName, temp); err != nil {
		// Credential already rotated; surface the delivery failure.
		log.Error("delivery failed", logger.Err(err), logger.AccountID(a.ID))
		return ErrInternal
	}

	s.audit(ctx, a.ID, ActionPasswordReset, "password reset requested", meta)
	log.Info("password reset issued", logger.AccountID(a.ID))
	return nil
}

// ValidateBearerToken verifies an access token and returns its claims.
func (s *Service) ValidateBearerToken(ctx context.Context, token string) (*jwtx.Claims, error) {
	c, err := s.deps.Signer.Validate(ctx, token)
	switch {
	case err == nil:
		s.deps.Metrics.Validation("ok")
	case errors.Is(err, jwtx.ErrTokenExpired):
		s.deps.Metrics.Validation("expired")
	case errors.Is(err, jwtx.ErrTokenRevoked):
		s.deps.Metrics.Validation("revoked")
	default:
		s.deps.Metrics.Validation("malformed")
	}
	return c, err
}

// CreateAccountInput is the administrative provisioning request.
type CreateAccountInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     repository.Role
}

// CreateAccount provisions a new account with a hashed credential.
// Returns repository.ErrConflict when the username or email is taken.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput, meta ClientMeta) (*repository.Account, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("CreateAccount"),
	)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, repository.ErrInvalidInput
	}
	if in.Role == "" {
		in.Role = repository.RoleAdmin
	}

	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		log.Error("hashing failed", logger.Err(err))
		return nil, ErrInternal
	}

	a := &repository.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.deps.Accounts.Create(ctx, a); err != nil {
		if repository.IsConflict(err) {
			return nil, err
		}
		log.Error("account create failed", logger.Err(err))
		return nil, ErrInternal
	}

	s.audit(ctx, a.ID, ActionAdminCreated, "account created: "+a.Username, meta)
	log.Info("account created", logger.AccountID(a.ID))
	return a, nil
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]repository.Account, error) {
	list, err := s.deps.Accounts.List(ctx)
	if err != nil {
		logger.From(ctx).Error("account list failed", logger.Err(err))
		return nil, ErrInternal
	}
	return list, nil
}

// SetAccountActive flips the active flag. Deactivation revokes every
// refresh token of the account.
func (s *Service) SetAccountActive(ctx context.Context, accountID string, active bool, meta ClientMeta) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("SetAccountActive"),
		logger.AccountID(accountID),
	)

	a, err := s.deps.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return repository.ErrNotFound
		}
		log.Error("account lookup failed", logger.Err(err))
		return ErrInternal
	}

	a.IsActive = active
	if err := s.deps.Accounts.Update(ctx, a); err != nil {
		log.Error("account update failed", logger.Err(err))
		return ErrInternal
	}

	if !active {
		if _, err := s.deps.Store.RevokeAllFor(ctx, a.ID); err != nil {
			log.Error("revoke-all failed", logger.Err(err))
			return ErrInternal
		}
	}

	detail := "account deactivated"
	if active {
		detail = "account activated"
	}
	s.audit(ctx, a.ID, ActionStatusChanged, detail, meta)
	log.Info("account status changed", logger.String("status", detail))
	return nil
}

// issuePair mints the access token and the rotated refresh token for the
// account. The jti minted with the refresh record goes into the access
// token so revoking the refresh token kills the access token too.
func (s *Service) issuePair(ctx context.Context, a *repository.Account) (*LoginResult, error) {
	refreshValue, jti, refreshExp, err := s.deps.Store.Issue(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	access, accessExp, err := s.deps.Signer.Issue(a, jti, time.Now())
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.TokenIssued("access")
	s.deps.Metrics.TokenIssued("refresh")
	return &LoginResult{
		AccessToken:   access,
		RefreshToken:  refreshValue,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
		Account:       a,
	}, nil
}

// audit appends an entry best-effort; a failing sink never fails the
// operation that triggered it.
func (s *Service) audit(ctx context.Context, accountID, action, details string, meta ClientMeta) {
	e := repository.AuditEntry{
		AccountID: accountID,
		Action:    action,
		Details:   details,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		At:        time.Now().UTC(),
	}
	if err := s.deps.Audit.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed",
			logger.Action(action),
			logger.AccountID(accountID),
			logger.Err(err),
		)
	}
}
