package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pallavilagisetti/admin-control-sub001/cmd/consoled/cmd/users"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "consoled",
	Short: "Admin console backend for the resume/job-matching platform",
	Long: `consoled serves the JSON API consumed by the browser-hosted admin
panel: account, resume, job, skill and payment listings, aggregate
metrics, and the downloadable analytics report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DEBUG)")

	// Add subcommands
	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
