// Command loyalty-auth runs the authentication service and its
// administrative tooling.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var (
		configPath string
		envFile    string
	)

	root := &cobra.Command{
		Use:     "loyalty-auth",
		Short:   "Authentication service for the loyalty program back office",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env for local development; missing file is fine.
			_ = godotenv.Load(envFile)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (optional; env vars always apply)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file for local development")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newCreateAdminCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
