package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
)

// InboundRepository archives every inbound SMS the engine forwards.
type InboundRepository struct {
	pool *pgxpool.Pool
}

func NewInboundRepository(pool *pgxpool.Pool) *InboundRepository {
	return &InboundRepository{pool: pool}
}

func (r *InboundRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *InboundRepository) RecordInbound(ctx context.Context, e mailbox.Entry) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.New()
	}
	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO inbound_sms (id, sender, body, received_at, forwarded_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (id) DO NOTHING`,
		id, e.Sender, e.Body, time.UnixMilli(e.Timestamp).UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert inbound sms: %w", err)
	}
	return nil
}
