package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iho/historycollector/internal/infrastructure/postgres"
)

const (
	migrateUp   = "up"
	migrateDown = "down"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrateUp, migrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := migrateUp
			if len(args) == 1 {
				direction = args[0]
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			switch direction {
			case migrateUp:
				return postgres.RunMigrations(cfg.DatabaseURL(), cfg.MigrationsPath, log)
			case migrateDown:
				return postgres.RunMigrationsDown(cfg.DatabaseURL(), cfg.MigrationsPath, log)
			default:
				return fmt.Errorf("unknown migration direction %q", direction)
			}
		},
	}
}
