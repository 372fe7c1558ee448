package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hypernova-labs/products-service/internal/config"
	"github.com/hypernova-labs/products-service/internal/database"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify database connectivity and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			logger := setupLogger(cfg)

			db, err := database.Connect(cfg)
			if err != nil {
				return fmt.Errorf("error connecting to database: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				return fmt.Errorf("database unhealthy: %w", err)
			}

			logger.WithField("database", cfg.Database.Name).Info("Database connection healthy")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "maximum time to wait for the check")
	return cmd
}
