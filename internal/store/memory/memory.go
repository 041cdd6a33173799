// Package memory is the in-process store: the documented test double and the
// dev-mode driver (storage.driver: memory). Not durable; the Postgres store
// is the production persistence strategy.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
)

// Store implements AccountRepository, RefreshTokenRepository and AuditSink
// behind a single mutex, which makes MarkUsed/RecordFailure trivially
// atomic.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*repository.Account      // by id
	tokens   map[string]*repository.RefreshToken // by digest
	audit    []repository.AuditEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*repository.Account),
		tokens:   make(map[string]*repository.RefreshToken),
	}
}

// ---- AccountRepository ----

func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*repository.Account, error) {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == needle || strings.ToLower(a.Email) == needle {
			return cloneAccount(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *Store) Create(ctx context.Context, a *repository.Account) error {
	if a.ID == "" || a.Username == "" || a.Email == "" {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, a.Username) || strings.EqualFold(existing.Email, a.Email) {
			return repository.ErrConflict
		}
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (s *Store) Update(ctx context.Context, a *repository.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return repository.ErrNotFound
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (s *Store) List(ctx context.Context) ([]repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out, nil
}

func (s *Store) RecordFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (repository.FailureState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.FailureState{}, repository.ErrNotFound
	}
	a.LoginAttempts++
	if a.LoginAttempts >= threshold {
		lu := lockUntil
		a.LockedUntil = &lu
	}
	return repository.FailureState{Attempts: a.LoginAttempts, LockedUntil: cloneTime(a.LockedUntil)}, nil
}

func (s *Store) RecordSuccess(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.LoginAttempts = 0
	a.LockedUntil = nil
	t := at
	a.LastLoginAt = &t
	return nil
}

// ---- RefreshTokenRepository ----

func (s *Store) Insert(ctx context.Context, t *repository.RefreshToken) error {
	if t.ID == "" || t.TokenDigest == "" || t.AccountID == "" {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.TokenDigest]; ok {
		return repository.ErrConflict
	}
	cp := *t
	s.tokens[t.TokenDigest] = &cp
	return nil
}

func (s *Store) GetByDigest(ctx context.Context, digest string) (*repository.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[digest]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) MarkUsed(ctx context.Context, digest string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[digest]
	if !ok || t.Used || t.Revoked {
		return false, nil
	}
	t.Used = true
	return true, nil
}

func (s *Store) MarkRevoked(ctx context.Context, digest string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[digest]
	if !ok {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (s *Store) MarkAllRevokedForAccount(ctx context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.AccountID == accountID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *Store) IsJTIRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.JTI == jti && t.Revoked {
			return true, nil
		}
	}
	return false, nil
}

// ---- AuditSink ----

func (s *Store) Append(ctx context.Context, e repository.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

// AuditEntries returns a copy of everything appended so far. Test helper.
func (s *Store) AuditEntries() []repository.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

func cloneAccount(a *repository.Account) *repository.Account {
	cp := *a
	cp.LockedUntil = cloneTime(a.LockedUntil)
	cp.LastLoginAt = cloneTime(a.LastLoginAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
