package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

// Pipeline delivers inbound SMS to the host. It is the mailbox observer in
// immediate mode and the scheduler's forwarder in buffered mode.
type Pipeline struct {
	notifier EventNotifier
	inbound  InboundRecorder
	logger   zerolog.Logger
}

// NewPipeline creates a Pipeline. inbound may be nil.
func NewPipeline(notifier EventNotifier, inbound InboundRecorder, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		notifier: notifier,
		inbound:  inbound,
		logger:   observability.Component(logger, "sms_pipeline"),
	}
}

// Forward publishes entry as an sms.received event.
func (p *Pipeline) Forward(ctx context.Context, entry mailbox.Entry) error {
	if p.inbound != nil {
		if err := p.inbound.RecordInbound(ctx, entry); err != nil {
			p.logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("Failed to record inbound SMS")
		}
	}

	e := entry
	event := Event{
		Type:       EventSmsReceived,
		Message:    &e,
		OccurredAt: time.Now().UTC(),
	}
	if err := p.notifier.Notify(ctx, event); err != nil {
		return fmt.Errorf("publish sms %s: %w", entry.ID, err)
	}

	p.logger.Debug().Str("entry_id", entry.ID).Str("sender", entry.Sender).Msg("SMS forwarded")
	return nil
}

// OnMessage implements mailbox.Observer.
func (p *Pipeline) OnMessage(ctx context.Context, entry mailbox.Entry) error {
	return p.Forward(ctx, entry)
}
