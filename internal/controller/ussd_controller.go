package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
)

// UssdController receives USSD results from the device bridge.
type UssdController struct {
	engine *engine.Engine
}

func NewUssdController(e *engine.Engine) *UssdController {
	return &UssdController{engine: e}
}

// Callback handles POST /api/v1/ussd/callback/{id}
func (h *UssdController) Callback(w http.ResponseWriter, r *http.Request) {
	txnID := chi.URLParam(r, "id")

	var req UssdCallbackRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if (req.Response == nil) == (req.FailureCode == nil) {
		writeError(w, domainErrors.NewValidationError("body", "exactly one of response and failure_code is required"))
		return
	}

	var (
		res engine.Result
		err error
	)
	if req.FailureCode != nil {
		res, err = h.engine.OnResponseFailed(r.Context(), txnID, *req.FailureCode)
	} else {
		res, err = h.engine.OnResponse(r.Context(), txnID, *req.Response)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromResult(res))
}
