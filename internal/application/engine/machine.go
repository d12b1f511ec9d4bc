package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

// Settings is the keyword and template snapshot a round-trip runs with.
type Settings struct {
	Keywords  classifier.Keywords
	Templates templates.Set
}

// MachineDeps wires a Machine. Recorder and Metrics are optional.
type MachineDeps struct {
	Dialer   UssdDialer
	Sms      SmsSender
	Notifier EventNotifier
	Recorder RoundTripRecorder
	Metrics  *observability.Metrics
	Settings func() Settings
	Timeout  time.Duration
	Logger   zerolog.Logger
}

type roundTrip struct {
	txn       transaction.Transaction
	code      string
	simID     int
	settings  Settings
	startedAt time.Time
	timer     *time.Timer
}

type outcome struct {
	eventType   EventType
	tag         classifier.Tag
	match       classifier.Match
	response    string
	errText     string
	failureCode *int
}

// Machine ties one USSD round-trip to its pending transaction. At most one
// transaction is in flight; a second Begin is rejected, never queued.
type Machine struct {
	dialer   UssdDialer
	sms      SmsSender
	notifier EventNotifier
	recorder RoundTripRecorder
	metrics  *observability.Metrics
	settings func() Settings
	timeout  time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	state    State
	inflight *roundTrip
}

func NewMachine(deps MachineDeps) *Machine {
	settings := deps.Settings
	if settings == nil {
		settings = func() Settings {
			return Settings{Templates: templates.Defaults()}
		}
	}
	return &Machine{
		dialer:   deps.Dialer,
		sms:      deps.Sms,
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		settings: settings,
		timeout:  deps.Timeout,
		logger:   observability.Component(deps.Logger, "state_machine"),
		state:    StateIdle,
	}
}

// Begin dials code for txn and waits, without blocking, for the response.
func (m *Machine) Begin(ctx context.Context, txn transaction.Transaction, code string, simID int) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return domainErrors.NewValidationError("ussd_code", "must not be empty")
	}
	if txn.ID == "" {
		txn = transaction.New("", txn.Name, txn.Phone, txn.Amount, txn.Offer)
	}

	rt := &roundTrip{
		txn:       txn,
		code:      code,
		simID:     simID,
		settings:  m.settings(),
		startedAt: time.Now(),
	}

	m.mu.Lock()
	if m.state != StateIdle {
		inFlightID := m.inflight.txn.ID
		m.mu.Unlock()
		m.reject("busy")
		m.logger.Warn().
			Str("transaction_id", txn.ID).
			Str("in_flight_id", inFlightID).
			Msg("Rejected transaction, another round-trip is in flight")
		return domainErrors.ErrRejectedBusy
	}
	m.moveLocked(StateAwaitingResponse)
	m.inflight = rt
	if m.metrics != nil {
		m.metrics.TransactionsInFlight.Set(1)
	}
	m.mu.Unlock()

	if err := m.dialer.Dial(ctx, DialRequest{TransactionID: txn.ID, Code: code, SimID: simID}); err != nil {
		m.mu.Lock()
		if m.inflight == rt && m.state == StateAwaitingResponse {
			m.inflight = nil
			m.moveLocked(StateIdle)
			if m.metrics != nil {
				m.metrics.TransactionsInFlight.Set(0)
			}
		}
		m.mu.Unlock()

		m.reject("unavailable")
		m.logger.Error().Err(err).Str("transaction_id", txn.ID).Msg("USSD dial rejected")
		if errors.Is(err, domainErrors.ErrCapabilityUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domainErrors.ErrCapabilityUnavailable, err)
	}

	m.mu.Lock()
	if m.inflight == rt && m.timeout > 0 {
		rt.timer = time.AfterFunc(m.timeout, func() { m.expire(rt) })
	}
	m.mu.Unlock()

	m.logger.Info().
		Str("transaction_id", txn.ID).
		Str("ussd_code", code).
		Int("sim_id", simID).
		Msg("USSD dialed, awaiting response")
	return nil
}

// OnResponse classifies the USSD response for txnID and confirms it by SMS.
func (m *Machine) OnResponse(ctx context.Context, txnID, response string) (Result, error) {
	rt, err := m.take(txnID, StateClassifying)
	if err != nil {
		return Result{}, err
	}

	match := rt.settings.Keywords.Match(response)
	tag := match.Tag()
	m.logger.Debug().
		Str("transaction_id", txnID).
		Str("response", response).
		Str("tag", string(tag)).
		Bool("success", match.Success).
		Bool("failure", match.Failure).
		Bool("already", match.Already).
		Msg("USSD response classified")

	return m.finish(ctx, rt, outcome{
		eventType: EventUssdResult,
		tag:       tag,
		match:     match,
		response:  response,
	}), nil
}

// OnResponseFailed handles a USSD session the carrier reported as failed.
func (m *Machine) OnResponseFailed(ctx context.Context, txnID string, failureCode int) (Result, error) {
	rt, err := m.take(txnID, StateFailed)
	if err != nil {
		return Result{}, err
	}

	text := fmt.Sprintf("USSD failed (code %d)", failureCode)
	code := failureCode
	return m.finish(ctx, rt, outcome{
		eventType:   EventUssdError,
		tag:         classifier.TagFailure,
		match:       classifier.Match{Failure: true},
		response:    text,
		errText:     text,
		failureCode: &code,
	}), nil
}

// Current returns a copy of the in-flight transaction.
func (m *Machine) Current() (transaction.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight == nil {
		return transaction.Transaction{}, false
	}
	return m.inflight.txn, true
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// take claims the in-flight round-trip for txnID, moving it to next.
func (m *Machine) take(txnID string, next State) (*roundTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inflight == nil || m.state != StateAwaitingResponse || m.inflight.txn.ID != txnID {
		m.logger.Warn().Str("transaction_id", txnID).Msg("Ignoring stale USSD callback")
		return nil, domainErrors.ErrStaleCallback
	}

	rt := m.inflight
	if rt.timer != nil {
		rt.timer.Stop()
	}
	m.moveLocked(next)
	return rt, nil
}

func (m *Machine) expire(rt *roundTrip) {
	m.mu.Lock()
	if m.inflight != rt || m.state != StateAwaitingResponse {
		m.mu.Unlock()
		return
	}
	m.moveLocked(StateFailed)
	m.mu.Unlock()

	m.logger.Warn().
		Str("transaction_id", rt.txn.ID).
		Dur("timeout", m.timeout).
		Msg("USSD response timed out")

	m.finish(context.Background(), rt, outcome{
		eventType: EventUssdError,
		tag:       TagTimeout,
		match:     classifier.Match{Failure: true},
		errText:   domainErrors.ErrResponseTimeout.Error(),
	})
}

// finish sends the confirmation SMS, publishes the event and returns the
// machine to idle. A failure in one step never skips the others.
func (m *Machine) finish(ctx context.Context, rt *roundTrip, out outcome) Result {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	if m.state == StateClassifying {
		m.moveLocked(StateDispatching)
	}
	m.mu.Unlock()

	res := Result{Transaction: rt.txn, Tag: out.tag}
	res.Dispatched, res.DispatchErr = m.dispatch(ctx, rt, out.tag)

	event := Event{
		Type:          out.eventType,
		TransactionID: rt.txn.ID,
		Response:      out.response,
		Error:         out.errText,
		IsSuccess:     out.match.Success,
		IsFailure:     out.match.Failure,
		IsAlready:     out.match.Already,
		Tag:           out.tag,
		OccurredAt:    time.Now().UTC(),
	}
	if res.DispatchErr != nil {
		event.DispatchError = res.DispatchErr.Error()
	}
	res.Event = event

	if err := m.notifier.Notify(ctx, event); err != nil {
		m.logger.Error().Err(err).Str("transaction_id", rt.txn.ID).Msg("Failed to publish round-trip event")
	}

	if m.recorder != nil {
		record := RoundTrip{
			Transaction:   rt.txn,
			UssdCode:      rt.code,
			SimID:         rt.simID,
			Outcome:       out.tag,
			Response:      out.response,
			FailureCode:   out.failureCode,
			SmsSent:       res.Dispatched,
			DispatchError: event.DispatchError,
			StartedAt:     rt.startedAt,
			FinishedAt:    event.OccurredAt,
			Event:         event,
		}
		if err := m.recorder.RecordRoundTrip(ctx, record); err != nil {
			m.logger.Error().Err(err).Str("transaction_id", rt.txn.ID).Msg("Failed to record round-trip")
		}
	}

	m.mu.Lock()
	m.inflight = nil
	m.moveLocked(StateIdle)
	if m.metrics != nil {
		m.metrics.TransactionsInFlight.Set(0)
	}
	m.mu.Unlock()

	if m.metrics != nil {
		label := string(out.tag)
		if out.failureCode != nil {
			label = "ussd_error"
		}
		m.metrics.TransactionsTotal.WithLabelValues(label).Inc()
		m.metrics.UssdRoundTrip.WithLabelValues(label).Observe(time.Since(rt.startedAt).Seconds())
	}

	m.logger.Info().
		Str("transaction_id", rt.txn.ID).
		Str("tag", string(out.tag)).
		Bool("sms_sent", res.Dispatched).
		Msg("Round-trip finished")

	return res
}

// dispatch renders and sends the template selected by tag. Unclassified
// responses have no template and send nothing.
func (m *Machine) dispatch(ctx context.Context, rt *roundTrip, tag classifier.Tag) (bool, error) {
	selectTag := tag
	if tag == TagTimeout {
		selectTag = classifier.TagFailure
	}
	kind, ok := templates.Select(selectTag)
	if !ok {
		return false, nil
	}

	logger := observability.ForTransaction(m.logger, rt.txn.ID)
	if !rt.txn.HasPhone() {
		m.countDispatch(kind, "skipped")
		logger.Warn().Msg("No phone number, skipping confirmation SMS")
		return false, nil
	}

	body := templates.Render(rt.settings.Templates.For(kind), rt.txn)
	if err := m.sms.Send(ctx, rt.txn.Phone, body); err != nil {
		m.countDispatch(kind, "failed")
		logger.Error().Err(err).
			Str("template", string(kind)).
			Msg("Failed to send confirmation SMS")
		return false, fmt.Errorf("%w: %v", domainErrors.ErrDispatchFailure, err)
	}

	m.countDispatch(kind, "sent")
	return true, nil
}

// moveLocked must be called with mu held.
func (m *Machine) moveLocked(next State) {
	if err := checkTransition(m.state, next); err != nil {
		m.logger.Error().Err(err).Msg("Unexpected state transition")
	}
	m.state = next
}

func (m *Machine) reject(reason string) {
	if m.metrics != nil {
		m.metrics.BeginRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Machine) countDispatch(kind templates.Kind, status string) {
	if m.metrics != nil {
		m.metrics.SmsDispatchTotal.WithLabelValues(string(kind), status).Inc()
	}
}
