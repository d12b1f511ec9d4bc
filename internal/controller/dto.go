package controller

import (
	"time"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/application/scheduler"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// --- Request DTOs ---
// Field names follow the payloads produced by the payment-message parser
// on the host side.

// TransactionRequest carries the transaction extracted from a payment message.
type TransactionRequest struct {
	ID     string             `json:"id" validate:"omitempty,max=64"`
	Name   string             `json:"extracted_name" validate:"max=128"`
	Phone  string             `json:"extracted_phone_number" validate:"omitempty,max=20"`
	Amount transaction.Amount `json:"extracted_amount"`
	Offer  string             `json:"purchased_offer" validate:"max=128"`
}

func (r TransactionRequest) toTransaction() transaction.Transaction {
	return transaction.New(r.ID, r.Name, r.Phone, r.Amount, r.Offer)
}

// BeginTransactionRequest starts a USSD round-trip.
type BeginTransactionRequest struct {
	TransactionRequest
	UssdCode string `json:"ussd_code" validate:"required,max=64"`
	SimID    int    `json:"sim_id" validate:"gte=0"`
}

// UssdCallbackRequest is posted by the device bridge. Exactly one of
// Response and FailureCode is set.
type UssdCallbackRequest struct {
	Response    *string `json:"response"`
	FailureCode *int    `json:"failure_code"`
}

// InboundSmsRequest holds the parts of one SMS delivery.
type InboundSmsRequest struct {
	Messages []InboundMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

type InboundMessage struct {
	Sender    string `json:"sender" validate:"required,max=64"`
	Body      string `json:"body" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

// KeywordsRequest replaces both keyword sets.
type KeywordsRequest struct {
	Success []string `json:"success_keywords" validate:"dive,max=64"`
	Failure []string `json:"failure_keywords" validate:"dive,max=64"`
}

// TemplatesRequest replaces the template set. Empty fields restore defaults.
type TemplatesRequest struct {
	Success          string `json:"success" validate:"max=640"`
	Failure          string `json:"failure" validate:"max=640"`
	AlreadyProcessed string `json:"already_processed" validate:"max=640"`
	NoOffer          string `json:"no_offer" validate:"max=640"`
}

func (r TemplatesRequest) toSet() templates.Set {
	return templates.Set{
		Success:          r.Success,
		Failure:          r.Failure,
		AlreadyProcessed: r.AlreadyProcessed,
		NoOffer:          r.NoOffer,
	}
}

// --- Response DTOs ---

// BeginTransactionResponse acknowledges an accepted round-trip.
type BeginTransactionResponse struct {
	Transaction transaction.Transaction `json:"transaction"`
	State       engine.State            `json:"state"`
}

// ResultResponse describes how a round-trip ended.
type ResultResponse struct {
	TransactionID string       `json:"transaction_id"`
	Tag           string       `json:"tag"`
	SmsSent       bool         `json:"sms_sent"`
	DispatchError string       `json:"dispatch_error,omitempty"`
	Event         engine.Event `json:"event"`
}

func FromResult(res engine.Result) ResultResponse {
	resp := ResultResponse{
		TransactionID: res.Transaction.ID,
		Tag:           string(res.Tag),
		SmsSent:       res.Dispatched,
		Event:         res.Event,
	}
	if res.DispatchErr != nil {
		resp.DispatchError = res.DispatchErr.Error()
	}
	return resp
}

// CaptureResponse tells the caller how its SMS parts were handled.
type CaptureResponse struct {
	Accepted int    `json:"accepted"`
	Mode     string `json:"mode"`
}

// MailboxResponse lists pending inbound SMS without removing them.
type MailboxResponse struct {
	Mode     string          `json:"mode"`
	Pending  int             `json:"pending"`
	Messages []mailbox.Entry `json:"messages"`
}

type ClearMailboxResponse struct {
	Dropped int `json:"dropped"`
}

// NoOfferResponse echoes the SMS that was sent.
type NoOfferResponse struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type LifecycleResponse struct {
	Changed bool          `json:"changed"`
	Status  engine.Status `json:"status"`
}

type TickResponse struct {
	Drained   int `json:"drained"`
	Forwarded int `json:"forwarded"`
	Failed    int `json:"failed"`
}

func FromTickReport(r scheduler.TickReport) TickResponse {
	return TickResponse{Drained: r.Drained, Forwarded: r.Forwarded, Failed: r.Failed}
}

type KeywordsResponse struct {
	Success []string `json:"success_keywords"`
	Failure []string `json:"failure_keywords"`
}

type SimsResponse struct {
	Sims []transaction.Sim `json:"sims"`
}

// RoundTripResponse is one audit row of a finished round-trip.
type RoundTripResponse struct {
	Transaction   transaction.Transaction `json:"transaction"`
	UssdCode      string                  `json:"ussd_code"`
	SimID         int                     `json:"sim_id"`
	Outcome       string                  `json:"outcome"`
	Response      string                  `json:"response,omitempty"`
	FailureCode   *int                    `json:"failure_code,omitempty"`
	SmsSent       bool                    `json:"sms_sent"`
	DispatchError string                  `json:"dispatch_error,omitempty"`
	StartedAt     time.Time               `json:"started_at"`
	FinishedAt    time.Time               `json:"finished_at"`
}

func FromRoundTrip(rt engine.RoundTrip) RoundTripResponse {
	return RoundTripResponse{
		Transaction:   rt.Transaction,
		UssdCode:      rt.UssdCode,
		SimID:         rt.SimID,
		Outcome:       string(rt.Outcome),
		Response:      rt.Response,
		FailureCode:   rt.FailureCode,
		SmsSent:       rt.SmsSent,
		DispatchError: rt.DispatchError,
		StartedAt:     rt.StartedAt,
		FinishedAt:    rt.FinishedAt,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toEntries(msgs []InboundMessage) []mailbox.Entry {
	entries := make([]mailbox.Entry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, mailbox.NewEntry(m.Sender, m.Body, m.Timestamp))
	}
	return entries
}
