package engine

import (
	"time"

	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// EventType identifies what an Event reports.
type EventType string

const (
	EventUssdResult  EventType = "ussd.result"
	EventUssdError   EventType = "ussd.error"
	EventSmsReceived EventType = "sms.received"
	EventStatus      EventType = "engine.status"
)

// TagTimeout marks a round-trip that received no response in time.
const TagTimeout classifier.Tag = "timeout"

// Event is published for every finished round-trip, forwarded SMS and
// scheduler heartbeat.
type Event struct {
	Type          EventType      `json:"type"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Response      string         `json:"response,omitempty"`
	Error         string         `json:"error,omitempty"`
	IsSuccess     bool           `json:"is_success"`
	IsFailure     bool           `json:"is_failure"`
	IsAlready     bool           `json:"is_already"`
	Tag           classifier.Tag `json:"tag,omitempty"`
	DispatchError string         `json:"dispatch_error,omitempty"`
	Message       *mailbox.Entry `json:"message,omitempty"`
	Status        *Status        `json:"status,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// Result describes how a round-trip ended.
type Result struct {
	Transaction transaction.Transaction
	Tag         classifier.Tag
	Event       Event
	Dispatched  bool
	DispatchErr error
}

// RoundTrip is the audit record of one accepted Begin.
type RoundTrip struct {
	Transaction   transaction.Transaction
	UssdCode      string
	SimID         int
	Outcome       classifier.Tag
	Response      string
	FailureCode   *int
	SmsSent       bool
	DispatchError string
	StartedAt     time.Time
	FinishedAt    time.Time
	Event         Event
}
