// Package scheduler runs the periodic background task that drains the SMS
// mailbox and reports engine liveness.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

const DefaultInterval = 2 * time.Minute

// Forwarder hands one drained entry to the processing pipeline.
type Forwarder interface {
	Forward(ctx context.Context, entry mailbox.Entry) error
}

// StatusSink receives the liveness signal emitted after every tick.
type StatusSink interface {
	ReportStatus(ctx context.Context) error
}

// TickReport summarises one tick.
type TickReport struct {
	Drained   int `json:"drained"`
	Forwarded int `json:"forwarded"`
	Failed    int `json:"failed"`
}

// Scheduler owns the mailbox's buffered mode while it runs. A tick that
// fails or panics is logged and the next tick is still armed.
type Scheduler struct {
	mailbox   *mailbox.Mailbox
	forwarder Forwarder
	sink      StatusSink
	interval  time.Duration
	metrics   *observability.Metrics
	logger    zerolog.Logger

	tickMu sync.Mutex

	// mu serializes Start and Stop. Running reads the flag without it,
	// since a tick reports status while Stop waits for that tick to end.
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// New creates a stopped scheduler. A non-positive interval falls back to
// DefaultInterval. sink and metrics may be nil.
func New(
	mb *mailbox.Mailbox,
	forwarder Forwarder,
	sink StatusSink,
	interval time.Duration,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		mailbox:   mb,
		forwarder: forwarder,
		sink:      sink,
		interval:  interval,
		metrics:   metrics,
		logger:    observability.Component(logger, "scheduler"),
	}
}

// Start switches the mailbox to buffered mode and launches the loop. The
// first tick runs right away. It returns false if already running. The loop
// outlives ctx's cancellation and ends only on Stop.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running.Store(true)

	s.mailbox.SetMode(mailbox.ModeBuffered)
	go s.run(loopCtx, done)

	s.logger.Info().Dur("interval", s.interval).Msg("Background scheduler started")
	return true
}

// Stop cancels the pending tick, waits for the loop to exit and restores
// the mailbox to immediate mode.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return
	}

	s.cancel()
	<-s.done
	s.running.Store(false)
	s.cancel = nil
	s.done = nil

	s.mailbox.SetMode(mailbox.ModeImmediate)
	s.logger.Info().Int("pending", s.mailbox.Len()).Msg("Background scheduler stopped")
}

func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// TickNow runs one tick synchronously, whether or not the loop is running.
func (s *Scheduler) TickNow(ctx context.Context) TickReport {
	return s.tick(ctx)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.tick(ctx)
		timer.Reset(s.interval)
	}
}

func (s *Scheduler) tick(ctx context.Context) (report TickReport) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			s.logger.Error().Interface("panic", r).Msg("Background tick panicked")
		}
		if s.metrics != nil {
			s.metrics.SchedulerTicks.WithLabelValues(status).Inc()
			s.metrics.SchedulerForwarded.Add(float64(report.Forwarded))
			s.metrics.MailboxPending.Set(float64(s.mailbox.Len()))
		}
	}()

	entries := s.mailbox.Drain()
	report.Drained = len(entries)

	for _, e := range entries {
		if err := s.forward(ctx, e); err != nil {
			report.Failed++
			s.logger.Error().Err(err).
				Str("entry_id", e.ID).
				Str("sender", e.Sender).
				Msg("Failed to forward SMS")
			continue
		}
		report.Forwarded++
	}
	if report.Failed > 0 {
		status = "error"
	}

	if s.sink != nil {
		if err := s.sink.ReportStatus(ctx); err != nil {
			status = "error"
			s.logger.Error().Err(err).Msg("Failed to report status")
		}
	}

	s.logger.Debug().
		Int("drained", report.Drained).
		Int("forwarded", report.Forwarded).
		Int("failed", report.Failed).
		Msg("Background tick done")
	return report
}

func (s *Scheduler) forward(ctx context.Context, e mailbox.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forward panicked: %v", r)
		}
	}()
	return s.forwarder.Forward(ctx, e)
}
