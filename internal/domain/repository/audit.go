package repository

import (
	"context"
	"time"
)

// AuditEntry is an immutable record of an authentication-relevant action.
type AuditEntry struct {
	AccountID string
	Action    string
	Details   string
	IPAddress string
	UserAgent string
	At        time.Time
}

// AuditSink appends audit entries. Entries are write-only from the core's
// point of view; reporting reads them elsewhere.
type AuditSink interface {
	Append(ctx context.Context, e AuditEntry) error
}
