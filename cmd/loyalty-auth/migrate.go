package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gussmann/loyalty-auth/internal/config"
	"github.com/gussmann/loyalty-auth/internal/observability/logger"
	"github.com/gussmann/loyalty-auth/internal/store/pg"
	migrations "github.com/gussmann/loyalty-auth/migrations/postgres"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply the embedded database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requires the postgres driver (storage.driver is %q)", cfg.Storage.Driver)
			}

			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "loyalty-auth"})
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{})
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}

			var applied int
			switch action {
			case "up":
				applied, err = store.Migrate(ctx, migrations.FS)
			case "down":
				applied, err = store.MigrateDown(ctx, migrations.FS)
			default:
				return fmt.Errorf("unknown action %q (want up or down)", action)
			}
			if err != nil {
				return err
			}

			fmt.Printf("%d migration(s) applied\n", applied)
			return nil
		},
	}
}
