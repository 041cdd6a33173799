package pg

import (
	"context"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
)

// Append writes an audit entry. The table is append-only; nothing in the
// core ever updates or deletes rows.
func (s *Store) Append(ctx context.Context, e repository.AuditEntry) error {
	const q = `
INSERT INTO admin_audit_log (account_id, action, details, ip_address, user_agent, created_at)
VALUES (NULLIF($1, ''), $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)`
	_, err := s.pool.Exec(ctx, q, e.AccountID, e.Action, e.Details, e.IPAddress, e.UserAgent, e.At)
	return err
}
