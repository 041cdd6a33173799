// Package notify delivers out-of-band secrets to account holders. The auth
// core hands a temporary password to a Notifier and forgets it; the secret
// is never written to any log or audit entry.
package notify

import "context"

// Notifier delivers a temporary password to its owner.
type Notifier interface {
	SendTemporaryPassword(ctx context.Context, email, fullName, tempPassword string) error
}

// Noop discards notifications. Dev/test default; the reset flow still
// rotates the credential, it just is not delivered anywhere.
type Noop struct{}

func (Noop) SendTemporaryPassword(ctx context.Context, email, fullName, tempPassword string) error {
	return nil
}
