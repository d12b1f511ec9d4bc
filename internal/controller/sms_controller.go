package controller

import (
	"net/http"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
)

// SmsController accepts inbound SMS and exposes the mailbox.
type SmsController struct {
	engine *engine.Engine
}

func NewSmsController(e *engine.Engine) *SmsController {
	return &SmsController{engine: e}
}

// Inbound handles POST /api/v1/sms/inbound. Buffered deliveries answer 202,
// immediately forwarded ones 200.
func (h *SmsController) Inbound(w http.ResponseWriter, r *http.Request) {
	var req InboundSmsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mode, err := h.engine.Capture(r.Context(), toEntries(req.Messages))
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if mode == mailbox.ModeBuffered {
		status = http.StatusAccepted
	}
	writeJSON(w, status, CaptureResponse{Accepted: len(req.Messages), Mode: mode.String()})
}

// Peek handles GET /api/v1/mailbox
func (h *SmsController) Peek(w http.ResponseWriter, r *http.Request) {
	mb := h.engine.Mailbox()
	messages := mb.Peek()
	writeJSON(w, http.StatusOK, MailboxResponse{
		Mode:     mb.Mode().String(),
		Pending:  len(messages),
		Messages: messages,
	})
}

// Clear handles DELETE /api/v1/mailbox
func (h *SmsController) Clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ClearMailboxResponse{Dropped: h.engine.ClearMailbox()})
}

// NoOffer handles POST /api/v1/notifications/no-offer
func (h *SmsController) NoOffer(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	txn := req.toTransaction()
	body, err := h.engine.SendNoOffer(r.Context(), txn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NoOfferResponse{To: txn.Phone, Body: body})
}
