package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// cleanupBatch bounds one DELETE so a large backlog never holds a long lock.
const cleanupBatch = 1000

// IdempotencyEntry is a stored reply to an operator request carrying an
// Idempotency-Key header.
type IdempotencyEntry struct {
	Key            string
	ResponseBody   string
	ResponseStatus int
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

func (r *IdempotencyRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Get returns the live entry for key, or nil when none exists.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*IdempotencyEntry, error) {
	e := &IdempotencyEntry{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT key, response_body, response_status, created_at, expires_at
		 FROM idempotency_keys WHERE key = $1 AND expires_at > NOW()`, key,
	).Scan(&e.Key, &e.ResponseBody, &e.ResponseStatus, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return e, nil
}

// Set stores the first reply for a key. A live entry is never overwritten,
// so two racing retries of the same begin both replay the winner's reply.
// An expired row under the same key is replaced.
func (r *IdempotencyRepository) Set(ctx context.Context, entry *IdempotencyEntry) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO idempotency_keys (key, response_body, response_status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE
		 SET response_body = EXCLUDED.response_body,
		     response_status = EXCLUDED.response_status,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at
		 WHERE idempotency_keys.expires_at <= NOW()`,
		entry.Key, entry.ResponseBody, entry.ResponseStatus, entry.CreatedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}

// Cleanup deletes expired keys in batches and returns how many went.
func (r *IdempotencyRepository) Cleanup(ctx context.Context) (int64, error) {
	var total int64
	for {
		tag, err := r.db(ctx).Exec(ctx,
			`DELETE FROM idempotency_keys
			 WHERE key IN (SELECT key FROM idempotency_keys WHERE expires_at < NOW() LIMIT $1)`,
			cleanupBatch,
		)
		if err != nil {
			return total, fmt.Errorf("cleanup idempotency keys: %w", err)
		}
		total += tag.RowsAffected()
		if tag.RowsAffected() < cleanupBatch || ctx.Err() != nil {
			return total, nil
		}
	}
}
