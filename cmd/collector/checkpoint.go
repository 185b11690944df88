package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	redisRepo "github.com/iho/historycollector/internal/adapter/repository/redis"
	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/usecase"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or move the ingestion checkpoint",
	}

	cmd.AddCommand(checkpointShowCmd(), checkpointSetCmd())

	return cmd
}

func checkpointShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the next file to ingest and the stored row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				summary, err := a.checkpoints.Summary(cmd.Context())
				if err != nil {
					return err
				}

				report := checkpointReport{CheckpointSummary: summary}
				if a.redis != nil {
					report.LastPublished = lastPublished(cmd.Context(), redisRepo.NewNotifier(a.redis, a.cfg.RedisStream), a.logger)
				}

				return printSummary(cmd.OutOrStdout(), report, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func checkpointSetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "set <file-id>",
		Short: "Move the checkpoint to another file",
		Long: `Move the checkpoint to another file. Moving it backwards re-ingests
files; rows already stored are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				id, err := a.checkpoints.Set(cmd.Context(), usecase.SetCheckpointInput{
					FileID: args[0],
					Force:  force,
				})
				if err != nil {
					return fmt.Errorf("failed to set checkpoint: %w", err)
				}

				a.logger.Info().Str("file_id", id.String()).Msg("checkpoint moved")
				fmt.Fprintf(cmd.OutOrStdout(), "next file: %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Accept a file id that is not a checkpoint boundary")

	return cmd
}

func withApp(ctx context.Context, fn func(*app) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

// checkpointReport is what `checkpoint show` prints.
type checkpointReport struct {
	usecase.CheckpointSummary
	// LastPublished is the last event on the Redis stream, if any.
	LastPublished *domain.FileProcessedEvent `json:"last_published,omitempty"`
}

type lastEventReader interface {
	Last(ctx context.Context) (domain.FileProcessedEvent, error)
}

// lastPublished returns nil when nothing was published or Redis cannot be
// read; the stored checkpoint is still worth printing.
func lastPublished(ctx context.Context, notifier lastEventReader, log zerolog.Logger) *domain.FileProcessedEvent {
	event, err := notifier.Last(ctx)
	if err != nil {
		if !errors.Is(err, redisRepo.ErrNoEvent) {
			log.Warn().Err(err).Msg("failed to read last published file")
		}
		return nil
	}

	return &event
}

func printSummary(w io.Writer, report checkpointReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, err := fmt.Fprintf(w, "next file:  %s\npayments:   %d\ntrustlines: %d\n",
		report.Next, report.Payments, report.Trustlines)
	if err != nil || report.LastPublished == nil {
		return err
	}

	last := report.LastPublished
	_, err = fmt.Fprintf(w, "published:  %s at %s\n", last.FileID, last.ProcessedAt.UTC().Format(time.RFC3339))
	return err
}
