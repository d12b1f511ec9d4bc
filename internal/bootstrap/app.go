package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cassiomorais/bingwa/internal/infrastructure/config"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/bingwa/internal/infrastructure/redis"
	"github.com/cassiomorais/bingwa/internal/repository/postgres"
)

// App holds the process-wide infrastructure shared by the commands.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics

	tracer *sdktrace.TracerProvider
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var out io.Writer = os.Stdout
	if cfg.Observability.LogFormat == "console" {
		out = observability.ConsoleOutput(os.Stdout)
	}
	logger := observability.InitLogger(cfg.Observability.LogLevel, out).
		With().Str("instance_id", cfg.InstanceID).Logger()
	logger.Info().Str("service", serviceName).Msg("Starting")

	app := &App{Config: cfg, Logger: logger}

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			app.tracer = tp
			logger.Info().Msg("Tracing enabled")
		}
	}

	if cfg.Observability.EnableMetrics {
		app.Metrics = observability.NewMetrics(metricsNamespace, nil)
		logger.Info().Msg("Metrics initialized")
	}

	pool, err := postgres.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		app.shutdownTracer()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	app.Pool = pool
	logger.Info().Msg("Connected to PostgreSQL")

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis, logger)
	if err != nil {
		pool.Close()
		app.shutdownTracer()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	app.Redis = redisClient
	logger.Info().Msg("Connected to Redis")

	return app, nil
}

func (a *App) Close() {
	a.Redis.Close()
	a.Pool.Close()
	a.shutdownTracer()
}

func (a *App) shutdownTracer() {
	if err := observability.Shutdown(context.Background(), a.tracer); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to flush traces")
	}
}
