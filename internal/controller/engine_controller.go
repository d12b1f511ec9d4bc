package controller

import (
	"net/http"

	"github.com/cassiomorais/bingwa/internal/application/engine"
)

// EngineController is the lifecycle and settings surface of the engine.
type EngineController struct {
	engine *engine.Engine
}

func NewEngineController(e *engine.Engine) *EngineController {
	return &EngineController{engine: e}
}

// Start handles POST /api/v1/engine/start. Changed is false when the
// scheduler was already running.
func (h *EngineController) Start(w http.ResponseWriter, r *http.Request) {
	changed := h.engine.Start(r.Context())
	writeJSON(w, http.StatusOK, LifecycleResponse{Changed: changed, Status: h.engine.Status()})
}

// Stop handles POST /api/v1/engine/stop
func (h *EngineController) Stop(w http.ResponseWriter, r *http.Request) {
	changed := h.engine.IsRunning()
	h.engine.Stop()
	writeJSON(w, http.StatusOK, LifecycleResponse{Changed: changed, Status: h.engine.Status()})
}

// Tick handles POST /api/v1/engine/tick
func (h *EngineController) Tick(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FromTickReport(h.engine.TickNow(r.Context())))
}

// Status handles GET /api/v1/engine/status
func (h *EngineController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status())
}

// Keywords handles GET /api/v1/engine/keywords
func (h *EngineController) Keywords(w http.ResponseWriter, r *http.Request) {
	kw := h.engine.Settings().Keywords
	writeJSON(w, http.StatusOK, KeywordsResponse{Success: nonNil(kw.Success), Failure: nonNil(kw.Failure)})
}

// UpdateKeywords handles PUT /api/v1/engine/keywords
func (h *EngineController) UpdateKeywords(w http.ResponseWriter, r *http.Request) {
	var req KeywordsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.UpdateKeywords(r.Context(), req.Success, req.Failure); err != nil {
		writeError(w, err)
		return
	}
	h.Keywords(w, r)
}

// Templates handles GET /api/v1/engine/templates
func (h *EngineController) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Settings().Templates)
}

// UpdateTemplates handles PUT /api/v1/engine/templates
func (h *EngineController) UpdateTemplates(w http.ResponseWriter, r *http.Request) {
	var req TemplatesRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.UpdateTemplates(r.Context(), req.toSet()); err != nil {
		writeError(w, err)
		return
	}
	h.Templates(w, r)
}

// Sims handles GET /api/v1/sims
func (h *EngineController) Sims(w http.ResponseWriter, r *http.Request) {
	sims, err := h.engine.ActiveSims(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SimsResponse{Sims: sims})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
