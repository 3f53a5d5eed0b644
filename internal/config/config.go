// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	State     StateConfig     `mapstructure:"state"`
	Records   RecordsConfig   `mapstructure:"records"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// HarvestConfig governs the archive walk.
type HarvestConfig struct {
	Channel               string `mapstructure:"channel"`
	SearchTerm            string `mapstructure:"search_term"`
	MaxRecords            int    `mapstructure:"max_records"`
	BatchSize             int    `mapstructure:"batch_size"`
	ReconnectDelaySeconds int    `mapstructure:"reconnect_delay_seconds"`
	MaxRetries            int    `mapstructure:"max_retries"`
	Dedup                 bool   `mapstructure:"dedup"`
}

// TelegramConfig configures the preview transport.
type TelegramConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StateConfig locates the flags files.
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// RecordsConfig selects the collected-record store.
type RecordsConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig selects the blob provider for snapshots and packets.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PublisherConfig selects the record-event publisher.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ScrapeConfig governs the post-harvest scraping tools.
type ScrapeConfig struct {
	UserAgent      string         `mapstructure:"user_agent"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds"`
	DelayMs        int            `mapstructure:"delay_ms"`
	Headless       HeadlessConfig `mapstructure:"headless"`
}

// HeadlessConfig configures the packet renderer.
type HeadlessConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
	RawSelector       string `mapstructure:"raw_selector"`
}

// OpsConfig controls the metrics/health endpoint.
type OpsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPACEPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.channel", "t.me/tinyGS_Telemetry")
	v.SetDefault("harvest.search_term", "Polytech_Universe-5")
	v.SetDefault("harvest.max_records", 10)
	v.SetDefault("harvest.batch_size", 99)
	v.SetDefault("harvest.reconnect_delay_seconds", 2)
	v.SetDefault("harvest.max_retries", 0)
	v.SetDefault("harvest.dedup", false)
	v.SetDefault("telegram.base_url", "https://t.me")
	v.SetDefault("telegram.timeout_seconds", 15)
	v.SetDefault("telegram.user_agent", "spacepi-harvester/0.1")
	v.SetDefault("state.dir", "state")
	v.SetDefault("records.provider", "noop")
	v.SetDefault("records.max_conns", 4)
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("scrape.user_agent", "spacepi-harvester/0.1")
	v.SetDefault("scrape.timeout_seconds", 10)
	v.SetDefault("scrape.delay_ms", 1500)
	v.SetDefault("scrape.headless.enabled", false)
	v.SetDefault("scrape.headless.nav_timeout_seconds", 25)
	v.SetDefault("scrape.headless.raw_selector", ".jv-code")
	v.SetDefault("ops.enabled", false)
	v.SetDefault("ops.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Harvest.Channel == "" {
		return fmt.Errorf("harvest.channel must be set")
	}
	if c.Harvest.SearchTerm == "" {
		return fmt.Errorf("harvest.search_term must be set")
	}
	if c.Harvest.BatchSize <= 0 {
		return fmt.Errorf("harvest.batch_size must be > 0")
	}
	if c.Harvest.MaxRecords <= 0 {
		return fmt.Errorf("harvest.max_records must be > 0")
	}
	if c.Telegram.TimeoutSeconds <= 0 {
		return fmt.Errorf("telegram.timeout_seconds must be > 0")
	}
	switch c.Records.Provider {
	case "postgres":
		if c.Records.DSN == "" {
			return fmt.Errorf("records.dsn must be set when records.provider is postgres")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unknown records provider: %s", c.Records.Provider)
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "local":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir must be set when storage.provider is local")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	switch c.Publisher.Provider {
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.TopicID == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic_id must be set when publisher.provider is pubsub")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown publisher provider: %s", c.Publisher.Provider)
	}
	if c.Ops.Enabled && c.Ops.Port <= 0 {
		return fmt.Errorf("ops.port must be > 0 when ops is enabled")
	}
	return nil
}

// ReconnectDelay converts the configured reconnect pause into a duration.
func (c Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Harvest.ReconnectDelaySeconds) * time.Second
}

// TelegramTimeout converts the transport timeout into a duration.
func (c Config) TelegramTimeout() time.Duration {
	return time.Duration(c.Telegram.TimeoutSeconds) * time.Second
}
