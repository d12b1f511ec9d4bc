package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
)

// RoundTripRepository keeps the audit trail of finished USSD round-trips.
type RoundTripRepository struct {
	pool *pgxpool.Pool
	tx   *TxManager
}

func NewRoundTripRepository(pool *pgxpool.Pool) *RoundTripRepository {
	return &RoundTripRepository{pool: pool, tx: NewTxManager(pool)}
}

func (r *RoundTripRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// RecordRoundTrip stores the round-trip and the event it produced in one
// transaction.
func (r *RoundTripRepository) RecordRoundTrip(ctx context.Context, rt engine.RoundTrip) error {
	payload, err := json.Marshal(rt.Event)
	if err != nil {
		return fmt.Errorf("marshal round-trip event: %w", err)
	}

	id := uuid.New()
	value, text := amountColumns(rt.Transaction.Amount)

	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := r.db(ctx).Exec(ctx,
			`INSERT INTO round_trips (id, transaction_id, customer_name, phone, amount_value, amount_text, offer,
			                          ussd_code, sim_id, outcome, response, failure_code, sms_sent, dispatch_error,
			                          started_at, finished_at)
			 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			id, rt.Transaction.ID, rt.Transaction.Name, rt.Transaction.Phone, value, text, rt.Transaction.Offer,
			rt.UssdCode, rt.SimID, string(rt.Outcome), rt.Response, rt.FailureCode, rt.SmsSent, rt.DispatchError,
			rt.StartedAt, rt.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("insert round-trip: %w", err)
		}

		_, err = r.db(ctx).Exec(ctx,
			`INSERT INTO round_trip_events (id, round_trip_id, event_type, payload, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), id, string(rt.Event.Type), payload, rt.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("insert round-trip event: %w", err)
		}
		return nil
	})
}

// ListRecent returns the latest round-trips, newest first.
func (r *RoundTripRepository) ListRecent(ctx context.Context, limit int) ([]engine.RoundTrip, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT transaction_id, customer_name, phone, amount_value::text, amount_text, offer,
		        ussd_code, sim_id, outcome, response, failure_code, sms_sent, dispatch_error,
		        started_at, finished_at
		 FROM round_trips
		 ORDER BY finished_at DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list round-trips: %w", err)
	}
	defer rows.Close()

	out := make([]engine.RoundTrip, 0, limit)
	for rows.Next() {
		var (
			rt          engine.RoundTrip
			value, text *string
			outcome     string
			startedAt   time.Time
			finishedAt  time.Time
		)
		if err := rows.Scan(
			&rt.Transaction.ID, &rt.Transaction.Name, &rt.Transaction.Phone, &value, &text, &rt.Transaction.Offer,
			&rt.UssdCode, &rt.SimID, &outcome, &rt.Response, &rt.FailureCode, &rt.SmsSent, &rt.DispatchError,
			&startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan round-trip: %w", err)
		}
		amount, err := amountFromColumns(value, text)
		if err != nil {
			return nil, err
		}
		rt.Transaction.Amount = amount
		rt.Outcome = classifier.Tag(outcome)
		rt.StartedAt = startedAt
		rt.FinishedAt = finishedAt
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round-trips: %w", err)
	}
	return out, nil
}
