package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/bootstrap"
	"github.com/cassiomorais/bingwa/internal/controller"
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/infrastructure/gateway"
	infraRedis "github.com/cassiomorais/bingwa/internal/infrastructure/redis"
	"github.com/cassiomorais/bingwa/internal/repository/postgres"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "bingwa-engine", "bingwa")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config

	// --- Device ownership ---
	lease := infraRedis.NewDeviceLease(app.Redis, cfg.Gateway.BaseURL, cfg.InstanceID, cfg.Engine.LeaseTTL)
	if err := lease.AcquireWithRetry(ctx, 3, cfg.Engine.LeaseTTL/3); err != nil {
		app.Logger.Error().Err(err).Str("gateway", cfg.Gateway.BaseURL).Msg("Could not take ownership of the device")
		return
	}
	defer lease.Release(context.Background())

	// --- Device bridge ---
	bridge := gateway.NewClient(&cfg.Gateway)
	smsBreaker := gateway.NewSmsBreaker(cfg.Gateway.CircuitBreakerThreshold, cfg.Gateway.CircuitBreakerTimeout, app.Metrics)

	// --- Repositories ---
	roundTrips := postgres.NewRoundTripRepository(app.Pool)
	inbound := postgres.NewInboundRepository(app.Pool)
	idempotency := postgres.NewIdempotencyRepository(app.Pool)

	// --- Engine ---
	eng := engine.New(engine.Deps{
		Dialer:   gateway.NewUssdClient(bridge, cfg.Engine.CallbackBaseURL),
		Sms:      gateway.NewSmsClient(bridge, smsBreaker, app.Metrics),
		Sims:     gateway.NewSimClient(bridge),
		Notifier: infraRedis.NewStreamPublisher(app.Redis, cfg.Redis.EventStream, cfg.Redis.EventStreamMaxLen),
		Prefs:    infraRedis.NewPreferenceStore(app.Redis),
		Recorder: roundTrips,
		Inbound:  inbound,
		Metrics:  app.Metrics,
		Logger:   app.Logger,
		Defaults: engine.Settings{
			Keywords: classifier.Keywords{
				Success: cfg.Engine.SuccessKeywords,
				Failure: cfg.Engine.FailureKeywords,
			},
			Templates: cfg.Engine.Templates,
		},
		ResponseTimeout: cfg.Engine.ResponseTimeout,
		TickInterval:    cfg.Scheduler.Interval,
	})
	if err := eng.Reload(ctx); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to load saved preferences, using configured defaults")
	}

	// --- HTTP server ---
	router := controller.NewRouter(controller.RouterDeps{
		Engine:         eng,
		DB:             app.Pool,
		Redis:          app.Redis,
		History:        roundTrips,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Engine.IdempotencyTTL,
		Metrics:        app.Metrics,
		Server:         cfg.Server,
		JWTSecret:      cfg.Auth.JWTSecret,
		InstanceID:     cfg.InstanceID,
		Logger:         app.Logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. HTTP API.
	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// 2. Background scheduler.
	if cfg.Scheduler.AutoStart {
		eng.Start(gCtx)
	}

	// 3. Device lease renewal.
	g.Go(func() error {
		if err := lease.Keep(gCtx, app.Logger); err != nil {
			return fmt.Errorf("device lease: %w", err)
		}
		return nil
	})

	// 4. Idempotency key cleanup.
	g.Go(func() error {
		return runIdempotencyCleanup(gCtx, app, idempotency)
	})

	// 5. Shutdown watcher.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
		case <-quit:
			app.Logger.Info().Msg("Shutting down...")
		}
		cancel()

		eng.Stop()

		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Engine error")
	}
	app.Logger.Info().Msg("Engine exited")
}
