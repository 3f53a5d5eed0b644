package records

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Expected schema:
//
//	CREATE TABLE harvest_records (
//	    id UUID PRIMARY KEY,
//	    channel TEXT NOT NULL,
//	    search_term TEXT NOT NULL,
//	    url TEXT NOT NULL,
//	    entry_id BIGINT NOT NULL,
//	    entry_at TIMESTAMPTZ NOT NULL,
//	    collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (channel, entry_id)
//	);
//	CREATE INDEX harvest_records_channel_url ON harvest_records (channel, url);

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresConfig controls the connection pool for the record store.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// PostgresProvider implements Provider on a pgx connection pool.
type PostgresProvider struct {
	pool pgxQuerier
}

// NewPostgresProvider connects a pool using the provided config.
func NewPostgresProvider(ctx context.Context, cfg PostgresConfig) (*PostgresProvider, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("records dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse records dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect records store: %w", err)
	}
	return &PostgresProvider{pool: pool}, nil
}

// NewPostgresProviderWithPool constructs a provider from an existing pool,
// primarily for testing with pgxmock.
func NewPostgresProviderWithPool(pool pgxQuerier) (*PostgresProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresProvider{pool: pool}, nil
}

// Save inserts one record; a duplicate (channel, entry id) is silently kept
// as the earlier row.
func (p *PostgresProvider) Save(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO harvest_records (id, channel, search_term, url, entry_id, entry_at, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel, entry_id) DO NOTHING
	`
	_, err := p.pool.Exec(ctx, query,
		rec.ID,
		rec.Channel,
		rec.SearchTerm,
		rec.URL,
		rec.EntryID,
		rec.EntryAt,
		rec.CollectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert harvest record: %w", err)
	}
	return nil
}

// Seen reports whether the URL was collected for the channel before.
func (p *PostgresProvider) Seen(ctx context.Context, channel, url string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM harvest_records WHERE channel = $1 AND url = $2)`
	var seen bool
	if err := p.pool.QueryRow(ctx, query, channel, url).Scan(&seen); err != nil {
		return false, fmt.Errorf("query seen url: %w", err)
	}
	return seen, nil
}

// Close releases the pool.
func (p *PostgresProvider) Close() {
	p.pool.Close()
}
