package testutil

import (
	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// Keyword sets used across engine and controller tests.
var (
	SuccessKeywords = []string{"successfully", "confirmed"}
	FailureKeywords = []string{"failed", "insufficient"}
)

func NewTestTransaction(id string) transaction.Transaction {
	return transaction.New(id, "john mwangi", "0712345678", transaction.NewDecimalAmount(250.0), "Daily Bundle")
}

// NewTestSettings returns the default templates with the shared keyword sets.
func NewTestSettings() engine.Settings {
	return engine.Settings{
		Keywords: classifier.Keywords{
			Success: SuccessKeywords,
			Failure: FailureKeywords,
		}.Normalize(),
		Templates: templates.Defaults(),
	}
}

// TestHarness bundles an engine with the mocks behind it.
type TestHarness struct {
	Engine   *engine.Engine
	Dialer   *MockUssdDialer
	Sms      *MockSmsSender
	Sims     *MockSimDirectory
	Notifier *MockEventNotifier
	Prefs    *MockPreferenceStore
	Recorder *MockRoundTripRecorder
	Inbound  *MockInboundRecorder
}

// NewTestHarness builds an engine over fresh mocks. opts may adjust the
// dependencies before construction.
func NewTestHarness(opts ...func(*engine.Deps)) *TestHarness {
	h := &TestHarness{
		Dialer:   NewMockUssdDialer(),
		Sms:      NewMockSmsSender(),
		Sims:     &MockSimDirectory{},
		Notifier: NewMockEventNotifier(),
		Prefs:    NewMockPreferenceStore(),
		Recorder: NewMockRoundTripRecorder(),
		Inbound:  NewMockInboundRecorder(),
	}

	deps := engine.Deps{
		Dialer:   h.Dialer,
		Sms:      h.Sms,
		Sims:     h.Sims,
		Notifier: h.Notifier,
		Prefs:    h.Prefs,
		Recorder: h.Recorder,
		Inbound:  h.Inbound,
		Defaults: NewTestSettings(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h.Engine = engine.New(deps)
	return h
}
