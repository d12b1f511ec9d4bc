// Package mailbox buffers inbound SMS between delivery and processing.
//
// In immediate mode every captured entry is handed straight to the observer.
// In buffered mode entries accumulate until the background scheduler drains
// them. Each entry is delivered exactly once.
package mailbox

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Mode selects how Capture handles an entry.
type Mode int32

const (
	ModeImmediate Mode = iota
	ModeBuffered
)

func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeBuffered:
		return "buffered"
	default:
		return "unknown"
	}
}

// Entry is one inbound SMS. Timestamp is milliseconds since the epoch.
type Entry struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

// NewEntry stamps a fresh identifier, and the current time when ts is zero.
func NewEntry(sender, body string, ts int64) Entry {
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return Entry{
		ID:        uuid.New().String(),
		Sender:    sender,
		Body:      body,
		Timestamp: ts,
	}
}

// Observer receives entries forwarded in immediate mode.
type Observer interface {
	OnMessage(ctx context.Context, e Entry) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Entry) error

func (f ObserverFunc) OnMessage(ctx context.Context, e Entry) error { return f(ctx, e) }

// Mailbox is safe for concurrent use.
type Mailbox struct {
	mode atomic.Int32

	obsMu    sync.RWMutex
	observer Observer

	mu      sync.Mutex
	entries []Entry
}

func New() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) Mode() Mode { return Mode(m.mode.Load()) }

func (m *Mailbox) SetMode(mode Mode) { m.mode.Store(int32(mode)) }

func (m *Mailbox) SetObserver(o Observer) {
	m.obsMu.Lock()
	m.observer = o
	m.obsMu.Unlock()
}

// Capture stores or forwards e and reports which way it went. With no
// observer registered an immediate-mode entry is buffered instead of lost.
func (m *Mailbox) Capture(ctx context.Context, e Entry) (Mode, error) {
	if m.Mode() == ModeImmediate {
		if o := m.currentObserver(); o != nil {
			return ModeImmediate, o.OnMessage(ctx, e)
		}
	}

	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return ModeBuffered, nil
}

// CaptureBatch captures the parts of one multi-part delivery. Buffered parts
// are appended under a single lock so they stay contiguous. In immediate
// mode each part is forwarded in order and the first error stops the batch.
func (m *Mailbox) CaptureBatch(ctx context.Context, entries []Entry) (Mode, error) {
	if len(entries) == 0 {
		return m.Mode(), nil
	}

	if m.Mode() == ModeImmediate {
		if o := m.currentObserver(); o != nil {
			for _, e := range entries {
				if err := o.OnMessage(ctx, e); err != nil {
					return ModeImmediate, err
				}
			}
			return ModeImmediate, nil
		}
	}

	m.mu.Lock()
	m.entries = append(m.entries, entries...)
	m.mu.Unlock()
	return ModeBuffered, nil
}

// Drain returns every pending entry in arrival order and empties the buffer.
func (m *Mailbox) Drain() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return []Entry{}
	}
	out := m.entries
	m.entries = nil
	return out
}

// Peek returns a copy of the pending entries without removing them.
func (m *Mailbox) Peek() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Clear discards every pending entry and returns how many were dropped.
func (m *Mailbox) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	m.entries = nil
	return n
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Mailbox) currentObserver() Observer {
	m.obsMu.RLock()
	defer m.obsMu.RUnlock()
	return m.observer
}
