package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
)

// RoundTripLister reads the round-trip audit trail.
type RoundTripLister interface {
	ListRecent(ctx context.Context, limit int) ([]engine.RoundTrip, error)
}

// TransactionController starts round-trips and reports on them.
type TransactionController struct {
	engine  *engine.Engine
	history RoundTripLister
}

// NewTransactionController creates a TransactionController. history may be
// nil, in which case the history endpoint answers 404.
func NewTransactionController(e *engine.Engine, history RoundTripLister) *TransactionController {
	return &TransactionController{engine: e, history: history}
}

// Begin handles POST /api/v1/transactions
func (h *TransactionController) Begin(w http.ResponseWriter, r *http.Request) {
	var req BeginTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	txn := req.toTransaction()
	if err := h.engine.Begin(r.Context(), txn, req.UssdCode, req.SimID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, BeginTransactionResponse{
		Transaction: txn,
		State:       engine.StateAwaitingResponse,
	})
}

// Current handles GET /api/v1/transactions/current
func (h *TransactionController) Current(w http.ResponseWriter, r *http.Request) {
	txn, ok := h.engine.Current()
	if !ok {
		writeError(w, domainErrors.ErrTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, BeginTransactionResponse{
		Transaction: txn,
		State:       h.engine.Machine().State(),
	})
}

// History handles GET /api/v1/transactions/history
func (h *TransactionController) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "history is not recorded", Code: "not_found"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]RoundTripResponse, 0, len(rows))
	for _, rt := range rows {
		resp = append(resp, FromRoundTrip(rt))
	}
	writeJSON(w, http.StatusOK, resp)
}
