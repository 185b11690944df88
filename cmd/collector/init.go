package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iho/historycollector/internal/infrastructure/postgres"
	"github.com/iho/historycollector/internal/usecase"
)

func initCmd() *cobra.Command {
	var (
		first string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the tables and seed the first file to ingest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			if err := postgres.RunMigrations(cfg.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.checkpoints.Initialize(cmd.Context(), usecase.SetCheckpointInput{
				FileID: first,
				Force:  force,
			})
			if err != nil {
				return fmt.Errorf("failed to seed checkpoint: %w", err)
			}

			log.Info().Str("file_id", id.String()).Msg("checkpoint initialized")
			fmt.Fprintf(cmd.OutOrStdout(), "next file: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&first, "first", "", "First archive file id to ingest, e.g. 0000003f")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing checkpoint")
	cmd.MarkFlagRequired("first")

	return cmd
}
