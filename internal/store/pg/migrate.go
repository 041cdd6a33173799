package pg

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/gussmann/loyalty-auth/internal/observability/logger"
)

// migrationLockID derives the pg_advisory_lock id all instances agree on.
func migrationLockID() int64 {
	h := sha256.Sum256([]byte("loyalty-auth:migrations"))
	return int64(binary.BigEndian.Uint64(h[:8]))
}

// Migrate applies every *_up.sql in fsys in lexical order, under an
// advisory lock so concurrent instances do not race. The scripts are
// idempotent (CREATE IF NOT EXISTS), so re-running is safe.
func (s *Store) Migrate(ctx context.Context, fsys fs.FS) (int, error) {
	return s.migrate(ctx, fsys, "_up.sql", false)
}

// MigrateDown applies every *_down.sql in reverse lexical order.
func (s *Store) MigrateDown(ctx context.Context, fsys fs.FS) (int, error) {
	return s.migrate(ctx, fsys, "_down.sql", true)
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS, suffix string, reverse bool) (int, error) {
	log := logger.Named("store.pg").With(logger.Op("migrate"))
	lockID := migrationLockID()

	lockCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.pool.Exec(lockCtx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return 0, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := s.pool.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			log.Warn("release migration lock failed", logger.Err(err))
		}
	}()

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if reverse {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	var applied int
	for _, f := range files {
		b, err := fs.ReadFile(fsys, f)
		if err != nil {
			return applied, err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return applied, fmt.Errorf("exec %s: %w", f, err)
		}
		log.Info("migration applied", logger.String("file", f))
		applied++
	}
	return applied, nil
}
