package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConnections    = 10
	minConnections    = 0
	maxConnIdleTime   = 2 * time.Minute
	maxConnLifetime   = 45 * time.Minute
	connectionTimeout = 3 * time.Second

	applicationName = "orderbridge"
)

var newPoolWithConfig = pgxpool.NewWithConfig

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = maxConnections
	cfg.MinConns = minConnections
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.MaxConnLifetime = maxConnLifetime
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return newPoolWithConfig(ctx, cfg)
}

func Ping(parent context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(parent, connectionTimeout)
	defer cancel()
	return pool.Ping(ctx)
}

// Open migrates the schema, then returns a pinged pool.
func Open(ctx context.Context, dsn string, logf func(string, ...any)) (*pgxpool.Pool, error) {
	if err := Migrate(dsn, logf); err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg pool: %w", err)
	}
	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	logf("[DB] connected")
	return pool, nil
}
