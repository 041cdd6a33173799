package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gussmann/loyalty-auth/internal/audit"
	"github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/cache"
	"github.com/gussmann/loyalty-auth/internal/config"
	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	healthctrl "github.com/gussmann/loyalty-auth/internal/http/controllers/health"
	"github.com/gussmann/loyalty-auth/internal/http/router"
	jwtx "github.com/gussmann/loyalty-auth/internal/jwt"
	"github.com/gussmann/loyalty-auth/internal/metrics"
	"github.com/gussmann/loyalty-auth/internal/notify"
	"github.com/gussmann/loyalty-auth/internal/observability/logger"
	"github.com/gussmann/loyalty-auth/internal/rate"
	"github.com/gussmann/loyalty-auth/internal/store/memory"
	"github.com/gussmann/loyalty-auth/internal/store/pg"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

// repositories groups the three persistence contracts a storage driver
// must provide.
type repositories struct {
	Accounts repository.AccountRepository
	Tokens   repository.RefreshTokenRepository
	Audit    repository.AuditSink
}

func serve(cfg *config.Config) error {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "loyalty-auth",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	health := healthctrl.NewController()
	var repos repositories
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
			MinConns:        int32(cfg.Storage.Postgres.MinConns),
			ConnMaxLifetime: parseDurOrZero(cfg.Storage.Postgres.ConnMaxLifetime),
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer store.Close()
		repos = repositories{Accounts: store, Tokens: store, Audit: store}
		health.Register("postgres", store)
	case "memory":
		log.Warn("using the in-memory store; all state is lost on restart")
		store := memory.New()
		repos = repositories{Accounts: store, Tokens: store, Audit: store}
	}
	if !cfg.IsProd() {
		// Mirror the audit trail into the structured log in dev.
		repos.Audit = audit.Fanout{repos.Audit, audit.LogSink{}}
	}

	// Cache (rate-limit counters only).
	cacheClient, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: parseDurOrZero(cfg.Cache.Memory.DefaultTTL),
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = cacheClient.Close() }()
	if cfg.Cache.Kind == "redis" {
		health.Register("redis", cacheClient)
	}

	// Core auth wiring.
	tokens := auth.NewTokenStore(repos.Tokens, cfg.RefreshTTL())
	signer := jwtx.NewSigner([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Audience, cfg.AccessTTL())
	signer.Revocations = tokens

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	} else {
		log.Warn("smtp not configured; password resets will not be delivered")
	}

	service := auth.NewService(auth.Deps{
		Accounts: repos.Accounts,
		Audit:    repos.Audit,
		Store:    tokens,
		Signer:   signer,
		Guard:    auth.NewGuard(repos.Accounts, cfg.Lockout.MaxAttempts, cfg.LockoutWindow()),
		Notifier: notifier,
		Metrics:  metrics.NewAuth(prometheus.DefaultRegisterer),
	})

	deps := router.Deps{Service: service, Health: health}
	if cfg.Rate.Enabled {
		deps.LoginLimiter = rate.NewFixedWindow(cacheClient, "rl:login", cfg.Rate.Login.Limit, cfg.LoginRateWindow())
		deps.ResetLimiter = rate.NewFixedWindow(cacheClient, "rl:reset", cfg.Rate.Reset.Limit, cfg.ResetRateWindow())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("storage", cfg.Storage.Driver),
			logger.String("cache", cfg.Cache.Kind),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func parseDurOrZero(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
