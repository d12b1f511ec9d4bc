package testutil

import (
	"context"
	"sync"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// --- USSD Dialer Mock ---

// MockUssdDialer is a mock implementation of engine.UssdDialer.
type MockUssdDialer struct {
	mu    sync.Mutex
	calls []engine.DialRequest

	DialFunc func(ctx context.Context, req engine.DialRequest) error
}

func NewMockUssdDialer() *MockUssdDialer {
	return &MockUssdDialer{}
}

func (m *MockUssdDialer) Dial(ctx context.Context, req engine.DialRequest) error {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.DialFunc != nil {
		return m.DialFunc(ctx, req)
	}
	return nil
}

func (m *MockUssdDialer) Calls() []engine.DialRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]engine.DialRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// --- SMS Sender Mock ---

// SentSms is one message captured by MockSmsSender.
type SentSms struct {
	To   string
	Body string
}

// MockSmsSender is a mock implementation of engine.SmsSender.
type MockSmsSender struct {
	mu   sync.Mutex
	sent []SentSms

	SendFunc func(ctx context.Context, to, body string) error
}

func NewMockSmsSender() *MockSmsSender {
	return &MockSmsSender{}
}

func (m *MockSmsSender) Send(ctx context.Context, to, body string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentSms{To: to, Body: body})
	return nil
}

func (m *MockSmsSender) Sent() []SentSms {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentSms, len(m.sent))
	copy(out, m.sent)
	return out
}

// --- SIM Directory Mock ---

// MockSimDirectory is a mock implementation of engine.SimDirectory.
type MockSimDirectory struct {
	Sims           []transaction.Sim
	ActiveSimsFunc func(ctx context.Context) ([]transaction.Sim, error)
}

func (m *MockSimDirectory) ActiveSims(ctx context.Context) ([]transaction.Sim, error) {
	if m.ActiveSimsFunc != nil {
		return m.ActiveSimsFunc(ctx)
	}
	return m.Sims, nil
}

// --- Event Notifier Mock ---

// MockEventNotifier is a mock implementation of engine.EventNotifier.
type MockEventNotifier struct {
	mu     sync.Mutex
	events []engine.Event

	NotifyFunc func(ctx context.Context, event engine.Event) error
}

func NewMockEventNotifier() *MockEventNotifier {
	return &MockEventNotifier{}
}

func (m *MockEventNotifier) Notify(ctx context.Context, event engine.Event) error {
	if m.NotifyFunc != nil {
		if err := m.NotifyFunc(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventNotifier) Events() []engine.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]engine.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns the captured events of type t.
func (m *MockEventNotifier) EventsOfType(t engine.EventType) []engine.Event {
	var out []engine.Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// --- Preference Store Mock ---

// MockPreferenceStore is an in-memory engine.PreferenceStore.
type MockPreferenceStore struct {
	mu        sync.Mutex
	keywords  *classifier.Keywords
	templates *templates.Set

	SaveKeywordsFunc  func(ctx context.Context, kw classifier.Keywords) error
	SaveTemplatesFunc func(ctx context.Context, set templates.Set) error
	LoadKeywordsFunc  func(ctx context.Context) (classifier.Keywords, bool, error)
}

func NewMockPreferenceStore() *MockPreferenceStore {
	return &MockPreferenceStore{}
}

func (m *MockPreferenceStore) LoadKeywords(ctx context.Context) (classifier.Keywords, bool, error) {
	if m.LoadKeywordsFunc != nil {
		return m.LoadKeywordsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keywords == nil {
		return classifier.Keywords{}, false, nil
	}
	return *m.keywords, true, nil
}

func (m *MockPreferenceStore) SaveKeywords(ctx context.Context, kw classifier.Keywords) error {
	if m.SaveKeywordsFunc != nil {
		if err := m.SaveKeywordsFunc(ctx, kw); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywords = &kw
	return nil
}

func (m *MockPreferenceStore) LoadTemplates(_ context.Context) (templates.Set, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.templates == nil {
		return templates.Set{}, false, nil
	}
	return *m.templates, true, nil
}

func (m *MockPreferenceStore) SaveTemplates(ctx context.Context, set templates.Set) error {
	if m.SaveTemplatesFunc != nil {
		if err := m.SaveTemplatesFunc(ctx, set); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = &set
	return nil
}

// --- Round-trip Recorder Mock ---

// MockRoundTripRecorder is a mock implementation of engine.RoundTripRecorder.
type MockRoundTripRecorder struct {
	mu      sync.Mutex
	records []engine.RoundTrip

	RecordFunc func(ctx context.Context, rt engine.RoundTrip) error
}

func NewMockRoundTripRecorder() *MockRoundTripRecorder {
	return &MockRoundTripRecorder{}
}

func (m *MockRoundTripRecorder) RecordRoundTrip(ctx context.Context, rt engine.RoundTrip) error {
	if m.RecordFunc != nil {
		if err := m.RecordFunc(ctx, rt); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rt)
	return nil
}

func (m *MockRoundTripRecorder) Records() []engine.RoundTrip {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]engine.RoundTrip, len(m.records))
	copy(out, m.records)
	return out
}

// --- Inbound Recorder Mock ---

// MockInboundRecorder is a mock implementation of engine.InboundRecorder.
type MockInboundRecorder struct {
	mu      sync.Mutex
	entries []mailbox.Entry
}

func NewMockInboundRecorder() *MockInboundRecorder {
	return &MockInboundRecorder{}
}

func (m *MockInboundRecorder) RecordInbound(_ context.Context, entry mailbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockInboundRecorder) Entries() []mailbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailbox.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
