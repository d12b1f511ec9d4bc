package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

func newMetricsRouter(t *testing.T) (*chi.Mux, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Post("/api/v1/ussd/callback/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {})
	return r, metrics
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r, metrics := newMetricsRouter(t)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/ussd/callback/"+id, nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/ussd/callback/{id}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.HTTPRequestDuration))
}

func TestMetrics_RecordsErrorStatus(t *testing.T) {
	r, metrics := newMetricsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/transactions", "409")))
}

func TestMetrics_SkipsProbesAndScrapes(t *testing.T) {
	r, metrics := newMetricsRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, 0, testutil.CollectAndCount(metrics.HTTPRequestsTotal))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	h := Metrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/unknown", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestStatusWriter_KeepsDefaultUntilWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

	sw.Write([]byte("x"))
	assert.Equal(t, http.StatusOK, sw.statusCode)

	sw.WriteHeader(http.StatusAccepted)
	assert.Equal(t, http.StatusAccepted, sw.statusCode)
}
