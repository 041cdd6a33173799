// Package audit provides AuditSink implementations beyond the database one.
package audit

import (
	"context"

	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	"github.com/gussmann/loyalty-auth/internal/observability/logger"
)

// LogSink writes audit entries to the structured log. Non-durable; the dev
// default when no database is configured.
type LogSink struct{}

func (LogSink) Append(ctx context.Context, e repository.AuditEntry) error {
	logger.From(ctx).Named("audit").Info("audit",
		logger.Action(e.Action),
		logger.AccountID(e.AccountID),
		logger.String("details", e.Details),
		logger.ClientIP(e.IPAddress),
		logger.UserAgent(e.UserAgent),
	)
	return nil
}

// Fanout appends to every sink; the first error wins but later sinks still
// run.
type Fanout []repository.AuditSink

func (f Fanout) Append(ctx context.Context, e repository.AuditEntry) error {
	var firstErr error
	for _, s := range f {
		if err := s.Append(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
