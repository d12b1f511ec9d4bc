package main

import (
	"context"
	"time"

	"github.com/cassiomorais/bingwa/internal/bootstrap"
	"github.com/cassiomorais/bingwa/internal/repository/postgres"
)

const idempotencyCleanupInterval = time.Hour

func runIdempotencyCleanup(ctx context.Context, app *bootstrap.App, repo *postgres.IdempotencyRepository) error {
	ticker := time.NewTicker(idempotencyCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		n, err := repo.Cleanup(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Idempotency cleanup failed")
			continue
		}
		if n > 0 {
			app.Logger.Info().Int64("deleted", n).Msg("Expired idempotency keys removed")
		}
	}
}
