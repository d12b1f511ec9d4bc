package engine

import (
	"context"

	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// DialRequest asks the device bridge to start a USSD session. The response
// comes back later through OnResponse or OnResponseFailed.
type DialRequest struct {
	TransactionID string
	Code          string
	SimID         int
}

// UssdDialer starts USSD sessions. Implementations return an error wrapping
// errors.ErrCapabilityUnavailable when the session cannot be placed at all.
type UssdDialer interface {
	Dial(ctx context.Context, req DialRequest) error
}

// SmsSender delivers one outbound SMS.
type SmsSender interface {
	Send(ctx context.Context, to, body string) error
}

// SimDirectory lists the active subscriptions on the device.
type SimDirectory interface {
	ActiveSims(ctx context.Context) ([]transaction.Sim, error)
}

// EventNotifier delivers engine events to the host application.
type EventNotifier interface {
	Notify(ctx context.Context, event Event) error
}

// PreferenceStore persists keyword and template settings. The bool result is
// false when nothing has been saved yet.
type PreferenceStore interface {
	LoadKeywords(ctx context.Context) (classifier.Keywords, bool, error)
	SaveKeywords(ctx context.Context, kw classifier.Keywords) error
	LoadTemplates(ctx context.Context) (templates.Set, bool, error)
	SaveTemplates(ctx context.Context, set templates.Set) error
}

// RoundTripRecorder keeps an audit trail of finished round-trips.
type RoundTripRecorder interface {
	RecordRoundTrip(ctx context.Context, rt RoundTrip) error
}

// InboundRecorder keeps an audit trail of forwarded inbound SMS.
type InboundRecorder interface {
	RecordInbound(ctx context.Context, entry mailbox.Entry) error
}
