package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cassiomorais/bingwa/internal/application/engine"
)

// EventStream is the default stream engine events are appended to.
const EventStream = "engine:events"

// StreamPublisher appends engine events to a Redis stream. It implements
// engine.EventNotifier.
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher. An empty stream falls back to
// EventStream; a positive maxLen trims the stream approximately.
func NewStreamPublisher(client redis.Cmdable, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = EventStream
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Notify(ctx context.Context, event engine.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type":     string(event.Type),
			"transaction_id": event.TransactionID,
			"payload":        string(payload),
			"timestamp":      ts.UnixMilli(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (p *StreamPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
