package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/app"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/publisher"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/records"
)

// newHarvestCmd creates the 'harvest' subcommand. It runs one harvest pass
// for the configured channel and search term, writes the day's snapshot, and
// fans collected records out to the record store and publisher.
func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Runs one harvest pass over the channel archive",
		Long: `Walks the configured channel newest-to-oldest, collecting links from
entries that match the search term until the per-run cap is reached. The
walk checkpoints after every batch so a crash or restart picks up where it
left off.`,

		RunE: runHarvestCommand,
	}
}

func runHarvestCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Ops != nil {
		go func() {
			if serr := a.Ops.Start(); serr != nil {
				a.Logger.Error("ops server failed", zap.Error(serr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.Ops.Shutdown(shutdownCtx)
		}()
	}

	cfg := a.Config
	result, err := a.Harvester().Run(ctx, harvest.Params{
		Channel:    cfg.Harvest.Channel,
		SearchTerm: cfg.Harvest.SearchTerm,
		MaxRecords: cfg.Harvest.MaxRecords,
		BatchSize:  cfg.Harvest.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("harvest run: %w", err)
	}

	a.Logger.Info("harvest finished",
		zap.String("channel", result.Channel.Username),
		zap.String("reason", string(result.Reason)),
		zap.Int("collected", len(result.Records)),
	)

	if len(result.Records) == 0 {
		return nil
	}

	if _, err := a.Snapshots.Write(ctx, cfg.Harvest.SearchTerm, a.Clock.Now(), result.Records); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := fanOutRecords(ctx, a, result); err != nil {
		return err
	}

	return nil
}

// fanOutRecords persists and publishes each collected record. Store and
// publish failures for individual records are logged and skipped so one bad
// record does not discard the rest of the run.
func fanOutRecords(ctx context.Context, a *app.App, result *harvest.Result) error {
	channel := result.Channel.Username
	term := a.Config.Harvest.SearchTerm
	now := a.Clock.Now()

	for _, rec := range result.Records {
		stored := records.FromHarvest(channel, term, rec, now)
		if err := a.Records.Save(ctx, stored); err != nil {
			a.Logger.Warn("record save failed",
				zap.Int64("entry_id", rec.EntryID),
				zap.Error(err),
			)
			continue
		}

		evt := publisher.RecordEvent{
			Channel:    channel,
			SearchTerm: term,
			URL:        rec.URL,
			EntryID:    rec.EntryID,
			Timestamp:  rec.Timestamp,
		}
		if err := a.Publisher.Publish(ctx, evt); err != nil {
			a.Logger.Warn("record publish failed",
				zap.Int64("entry_id", rec.EntryID),
				zap.Error(err),
			)
		}
	}
	return nil
}
