package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// WaitConnect retries at a fixed interval until the database answers or the
// context is cancelled. Startup favors liveness over fast failure.
func WaitConnect(ctx context.Context, dsn string, log *slog.Logger) (*pgxpool.Pool, error) {
	const interval = 5 * time.Second
	for {
		pool, err := Connect(ctx, dsn)
		if err == nil {
			return pool, nil
		}
		log.Warn("postgres not ready, retrying", "err", err, "interval", interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
