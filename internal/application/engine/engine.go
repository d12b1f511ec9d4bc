package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/bingwa/internal/application/scheduler"
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

// Deps wires an Engine. Prefs, Recorder, Inbound and Metrics are optional.
type Deps struct {
	Dialer   UssdDialer
	Sms      SmsSender
	Sims     SimDirectory
	Notifier EventNotifier
	Prefs    PreferenceStore
	Recorder RoundTripRecorder
	Inbound  InboundRecorder
	Mailbox  *mailbox.Mailbox
	Metrics  *observability.Metrics
	Logger   zerolog.Logger

	// Defaults apply until preferences have been saved.
	Defaults        Settings
	ResponseTimeout time.Duration
	TickInterval    time.Duration
}

// Status is a point-in-time view of the engine.
type Status struct {
	Timestamp       time.Time `json:"timestamp"`
	Running         bool      `json:"running"`
	State           State     `json:"state"`
	InFlightID      string    `json:"in_flight_id,omitempty"`
	SuccessKeywords []string  `json:"success_keywords"`
	FailureKeywords []string  `json:"failure_keywords"`
	MailboxMode     string    `json:"mailbox_mode"`
	MailboxPending  int       `json:"mailbox_pending"`
	TickInterval    string    `json:"tick_interval"`
}

// Engine is the control surface over the state machine, mailbox and
// background scheduler.
type Engine struct {
	machine   *Machine
	mailbox   *mailbox.Mailbox
	scheduler *scheduler.Scheduler
	pipeline  *Pipeline
	sms       SmsSender
	sims      SimDirectory
	notifier  EventNotifier
	prefs     PreferenceStore
	metrics   *observability.Metrics
	logger    zerolog.Logger

	defaults Settings
	settings atomic.Pointer[Settings]
	updateMu sync.Mutex
}

func New(deps Deps) *Engine {
	mb := deps.Mailbox
	if mb == nil {
		mb = mailbox.New()
	}

	e := &Engine{
		mailbox:  mb,
		sms:      deps.Sms,
		sims:     deps.Sims,
		notifier: deps.Notifier,
		prefs:    deps.Prefs,
		metrics:  deps.Metrics,
		logger:   observability.Component(deps.Logger, "engine"),
		defaults: Settings{
			Keywords:  deps.Defaults.Keywords.Normalize(),
			Templates: deps.Defaults.Templates.WithDefaults(),
		},
	}
	initial := e.defaults
	e.settings.Store(&initial)

	e.machine = NewMachine(MachineDeps{
		Dialer:   deps.Dialer,
		Sms:      deps.Sms,
		Notifier: deps.Notifier,
		Recorder: deps.Recorder,
		Metrics:  deps.Metrics,
		Settings: e.Settings,
		Timeout:  deps.ResponseTimeout,
		Logger:   deps.Logger,
	})

	e.pipeline = NewPipeline(deps.Notifier, deps.Inbound, deps.Logger)
	mb.SetObserver(e.pipeline)
	e.scheduler = scheduler.New(mb, e.pipeline, e, deps.TickInterval, deps.Metrics, deps.Logger)

	return e
}

// Settings returns the current keyword and template snapshot.
func (e *Engine) Settings() Settings {
	return *e.settings.Load()
}

func (e *Engine) Machine() *Machine { return e.machine }

func (e *Engine) Mailbox() *mailbox.Mailbox { return e.mailbox }

// Begin starts a round-trip for txn. See Machine.Begin.
func (e *Engine) Begin(ctx context.Context, txn transaction.Transaction, code string, simID int) error {
	return e.machine.Begin(ctx, txn, code, simID)
}

func (e *Engine) OnResponse(ctx context.Context, txnID, response string) (Result, error) {
	return e.machine.OnResponse(ctx, txnID, response)
}

func (e *Engine) OnResponseFailed(ctx context.Context, txnID string, failureCode int) (Result, error) {
	return e.machine.OnResponseFailed(ctx, txnID, failureCode)
}

func (e *Engine) Current() (transaction.Transaction, bool) {
	return e.machine.Current()
}

// Start reloads persisted preferences and starts the background scheduler.
// It returns false when the scheduler was already running.
func (e *Engine) Start(ctx context.Context) bool {
	if err := e.Reload(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to reload preferences, keeping current settings")
	}
	started := e.scheduler.Start(ctx)
	if started {
		e.logger.Info().Msg("Engine started")
	}
	return started
}

// Stop halts the background scheduler. The in-flight transaction, if any,
// is left alone.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.logger.Info().Msg("Engine stopped")
}

func (e *Engine) IsRunning() bool { return e.scheduler.Running() }

// TickNow runs one background tick immediately.
func (e *Engine) TickNow(ctx context.Context) scheduler.TickReport {
	return e.scheduler.TickNow(ctx)
}

// UpdateKeywords normalizes and persists the keyword sets, then makes them
// visible to the next Begin. A round-trip already in flight keeps its own.
func (e *Engine) UpdateKeywords(ctx context.Context, success, failure []string) error {
	kw := classifier.Keywords{Success: success, Failure: failure}.Normalize()

	e.updateMu.Lock()
	defer e.updateMu.Unlock()

	if e.prefs != nil {
		if err := e.prefs.SaveKeywords(ctx, kw); err != nil {
			return fmt.Errorf("save keywords: %w", err)
		}
	}

	next := e.Settings()
	next.Keywords = kw
	e.settings.Store(&next)

	e.logger.Info().
		Strs("success_keywords", kw.Success).
		Strs("failure_keywords", kw.Failure).
		Msg("Keywords updated")
	return nil
}

// UpdateTemplates persists and swaps the template set. Empty templates fall
// back to the built-in defaults.
func (e *Engine) UpdateTemplates(ctx context.Context, set templates.Set) error {
	set = set.WithDefaults()

	e.updateMu.Lock()
	defer e.updateMu.Unlock()

	if e.prefs != nil {
		if err := e.prefs.SaveTemplates(ctx, set); err != nil {
			return fmt.Errorf("save templates: %w", err)
		}
	}

	next := e.Settings()
	next.Templates = set
	e.settings.Store(&next)

	e.logger.Info().Msg("Templates updated")
	return nil
}

// Reload re-reads persisted preferences. Anything never saved falls back to
// the configured defaults.
func (e *Engine) Reload(ctx context.Context) error {
	if e.prefs == nil {
		return nil
	}

	e.updateMu.Lock()
	defer e.updateMu.Unlock()

	next := e.defaults

	kw, ok, err := e.prefs.LoadKeywords(ctx)
	if err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}
	if ok {
		next.Keywords = kw.Normalize()
	}

	set, ok, err := e.prefs.LoadTemplates(ctx)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	if ok {
		next.Templates = set.WithDefaults()
	}

	e.settings.Store(&next)
	e.logger.Debug().Msg("Preferences reloaded")
	return nil
}

// Capture hands inbound SMS parts of one delivery to the mailbox.
func (e *Engine) Capture(ctx context.Context, entries []mailbox.Entry) (mailbox.Mode, error) {
	mode, err := e.mailbox.CaptureBatch(ctx, entries)
	if e.metrics != nil {
		e.metrics.MailboxCaptured.WithLabelValues(mode.String()).Add(float64(len(entries)))
		e.metrics.MailboxPending.Set(float64(e.mailbox.Len()))
	}
	if err != nil {
		return mode, fmt.Errorf("forward inbound sms: %w", err)
	}
	return mode, nil
}

// ClearMailbox drops every pending inbound SMS.
func (e *Engine) ClearMailbox() int {
	n := e.mailbox.Clear()
	if e.metrics != nil {
		e.metrics.MailboxPending.Set(0)
	}
	e.logger.Info().Int("dropped", n).Msg("Mailbox cleared")
	return n
}

// SendNoOffer tells the customer their payment matched no offer. It does
// not involve the state machine.
func (e *Engine) SendNoOffer(ctx context.Context, txn transaction.Transaction) (string, error) {
	if !txn.HasPhone() {
		return "", domainErrors.NewValidationError("extracted_phone_number", "is required")
	}

	body := e.Settings().Templates.RenderNoOffer(txn)
	if err := e.sms.Send(ctx, txn.Phone, body); err != nil {
		if e.metrics != nil {
			e.metrics.SmsDispatchTotal.WithLabelValues(string(templates.KindNoOffer), "failed").Inc()
		}
		return body, fmt.Errorf("%w: %v", domainErrors.ErrDispatchFailure, err)
	}
	if e.metrics != nil {
		e.metrics.SmsDispatchTotal.WithLabelValues(string(templates.KindNoOffer), "sent").Inc()
	}
	return body, nil
}

// ActiveSims lists the device subscriptions usable for dialing.
func (e *Engine) ActiveSims(ctx context.Context) ([]transaction.Sim, error) {
	return e.sims.ActiveSims(ctx)
}

func (e *Engine) Status() Status {
	s := e.Settings()
	st := Status{
		Timestamp:       time.Now().UTC(),
		Running:         e.IsRunning(),
		State:           e.machine.State(),
		SuccessKeywords: s.Keywords.Success,
		FailureKeywords: s.Keywords.Failure,
		MailboxMode:     e.mailbox.Mode().String(),
		MailboxPending:  e.mailbox.Len(),
		TickInterval:    e.scheduler.Interval().String(),
	}
	if txn, ok := e.machine.Current(); ok {
		st.InFlightID = txn.ID
	}
	if st.SuccessKeywords == nil {
		st.SuccessKeywords = []string{}
	}
	if st.FailureKeywords == nil {
		st.FailureKeywords = []string{}
	}
	return st
}

// ReportStatus publishes the current status. The scheduler calls it after
// every tick.
func (e *Engine) ReportStatus(ctx context.Context) error {
	st := e.Status()
	return e.notifier.Notify(ctx, Event{
		Type:       EventStatus,
		Status:     &st,
		OccurredAt: st.Timestamp,
	})
}
