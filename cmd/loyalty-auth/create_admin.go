package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/config"
	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	"github.com/gussmann/loyalty-auth/internal/observability/logger"
	"github.com/gussmann/loyalty-auth/internal/security/token"
	"github.com/gussmann/loyalty-auth/internal/store/pg"
)

func newCreateAdminCmd(configPath *string) *cobra.Command {
	var (
		username string
		email    string
		password string
		fullName string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Provision an administrative account",
		Long: `Provision an administrative account directly in the database.
When --password is omitted a temporary password is generated and printed
once; it is never stored in plaintext or logged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("create-admin requires the postgres driver (storage.driver is %q)", cfg.Storage.Driver)
			}

			logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn", ServiceName: "loyalty-auth"})
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

			generated := false
			if password == "" {
				password, err = token.NewTemporaryPassword(16)
				if err != nil {
					return err
				}
				generated = true
			}

			service := auth.NewService(auth.Deps{Accounts: store, Audit: store})
			a, err := service.CreateAccount(ctx, auth.CreateAccountInput{
				Username: username,
				Email:    email,
				Password: password,
				FullName: fullName,
				Role:     repository.Role(role),
			}, auth.ClientMeta{})
			if err != nil {
				return err
			}

			fmt.Printf("account %s created (id=%s, role=%s)\n", a.Username, a.ID, a.Role)
			if generated {
				fmt.Printf("temporary password: %s\n", password)
				fmt.Println("change it after the first login")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "initial password (generated when omitted)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(repository.RoleAdmin), "account role (Admin or SuperAdmin)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
