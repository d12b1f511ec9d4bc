package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/bingwa/internal/infrastructure/config"
	"github.com/cassiomorais/bingwa/pkg/retry"
)

const applicationName = "bingwa-engine"

// NewPool opens the audit database pool. The engine usually starts next to
// its database, so the first ping is retried with backoff.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	rc := retry.DefaultConfig()
	rc.MaxDelay = 5 * time.Second
	rc.OnRetry = func(attempt uint, err error) {
		logger.Warn().Err(err).Uint("attempt", attempt+1).Msg("PostgreSQL not ready, retrying")
	}

	pool, err := retry.DoWithResult(ctx, rc, func() (*pgxpool.Pool, error) {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}
