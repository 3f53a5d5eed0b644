// Package app wires configuration into concrete components and owns their
// lifecycles.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/checkpoint"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/clock/system"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/config"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/logging"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/publisher"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/records"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/scrape"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/server"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/snapshot"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/storage"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/telegram"
)

// App holds the assembled components for a single process.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Clock     system.Clock
	Archive   *telegram.Client
	Records   records.Provider
	Storage   storage.Provider
	Publisher publisher.Provider
	Snapshots *snapshot.Writer
	Ops       *server.Server

	renderer *scrape.PacketRenderer
	closers  []func() error
}

// New assembles an App from config. Callers own Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a := &App{
		Config: cfg,
		Logger: logger,
		Clock:  system.New(),
	}

	a.Archive = telegram.New(telegram.Config{
		BaseURL:   cfg.Telegram.BaseURL,
		Timeout:   cfg.TelegramTimeout(),
		UserAgent: cfg.Telegram.UserAgent,
	}, logger)

	if err := a.initRecords(ctx, cfg); err != nil {
		a.closeQuietly()
		return nil, err
	}
	if err := a.initStorage(ctx, cfg); err != nil {
		a.closeQuietly()
		return nil, err
	}
	if err := a.initPublisher(ctx, cfg); err != nil {
		a.closeQuietly()
		return nil, err
	}

	a.Snapshots = snapshot.NewWriter(a.Storage, logger)

	if cfg.Ops.Enabled {
		a.Ops = server.New(cfg.Ops.Port, logger)
	}

	return a, nil
}

func (a *App) initRecords(ctx context.Context, cfg config.Config) error {
	switch cfg.Records.Provider {
	case "postgres":
		p, err := records.NewPostgresProvider(ctx, records.PostgresConfig{
			DSN:      cfg.Records.DSN,
			MaxConns: int32(cfg.Records.MaxConns),
		})
		if err != nil {
			return fmt.Errorf("init records store: %w", err)
		}
		a.Records = p
	case "memory":
		a.Records = records.NewMemoryProvider()
	case "noop":
		a.Records = records.NoOpProvider{}
	default:
		return fmt.Errorf("unknown records provider: %s", cfg.Records.Provider)
	}
	return nil
}

func (a *App) initStorage(ctx context.Context, cfg config.Config) error {
	switch cfg.Storage.Provider {
	case "gcs":
		p, err := storage.NewGCSProvider(ctx, cfg.Storage.GCSBucket, a.Logger)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		a.Storage = p
		a.closers = append(a.closers, p.Close)
	case "local":
		p, err := storage.NewLocalProvider(cfg.Storage.Dir)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		a.Storage = p
	case "noop":
		a.Storage = storage.NoOpProvider{}
	default:
		return fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context, cfg config.Config) error {
	switch cfg.Publisher.Provider {
	case "pubsub":
		p, err := publisher.NewPubSubProvider(ctx, cfg.Publisher.ProjectID, cfg.Publisher.TopicID, a.Logger)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		a.Publisher = p
		a.closers = append(a.closers, p.Close)
	case "noop":
		a.Publisher = publisher.NoOpProvider{}
	default:
		return fmt.Errorf("unknown publisher provider: %s", cfg.Publisher.Provider)
	}
	return nil
}

// Harvester builds a run-ready harvester bound to the configured channel's
// checkpoint file.
func (a *App) Harvester() *harvest.Harvester {
	cfg := a.Config
	path := checkpoint.StatePath(cfg.State.Dir, cfg.Harvest.Channel, cfg.Harvest.SearchTerm)
	store := checkpoint.NewFileStore(path, a.Clock)

	policy := harvest.NewFixedDelayPolicy(a.Config.ReconnectDelay())
	policy.MaxAttempts = cfg.Harvest.MaxRetries

	var dedup harvest.Deduper
	if cfg.Harvest.Dedup {
		dedup = a.Records
	}

	return harvest.New(a.Archive, store, policy, dedup, a.Clock, a.Logger)
}

// Scraper builds the post-harvest scraping pipeline. The headless renderer is
// only started when enabled in config.
func (a *App) Scraper() (*scrape.Scraper, error) {
	previews, err := scrape.NewPreviewFetcher(scrape.PreviewConfig{
		UserAgent: a.Config.Scrape.UserAgent,
		Timeout:   time.Duration(a.Config.Scrape.TimeoutSeconds) * time.Second,
		Delay:     time.Duration(a.Config.Scrape.DelayMs) * time.Millisecond,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("init preview fetcher: %w", err)
	}

	var renderer *scrape.PacketRenderer
	if a.Config.Scrape.Headless.Enabled {
		renderer, err = scrape.NewPacketRenderer(scrape.PacketConfig{
			Enabled:     true,
			UserAgent:   a.Config.Scrape.UserAgent,
			NavTimeout:  time.Duration(a.Config.Scrape.Headless.NavTimeoutSeconds) * time.Second,
			RawSelector: a.Config.Scrape.Headless.RawSelector,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("init packet renderer: %w", err)
		}
		a.renderer = renderer
	}

	return scrape.NewScraper(previews, renderer, a.Storage, a.Logger), nil
}

func (a *App) closeQuietly() {
	_ = a.Close()
}

// Close releases every component that holds external resources.
func (a *App) Close() error {
	var first error
	if a.renderer != nil {
		a.renderer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	if a.Records != nil {
		a.Records.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return first
}
