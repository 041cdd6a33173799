package dto

import "github.com/gussmann/loyalty-auth/internal/domain/repository"

// FromAccount maps a domain account to its API shape. The password hash and
// lockout counters never leave the service.
func FromAccount(a *repository.Account) Account {
	return Account{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FullName:    a.FullName,
		Role:        string(a.Role),
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}
