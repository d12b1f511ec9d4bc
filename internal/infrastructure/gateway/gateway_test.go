package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
	"github.com/cassiomorais/bingwa/internal/infrastructure/config"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.GatewayConfig{
		BaseURL:        srv.URL + "/",
		Token:          "bridge-token",
		RequestTimeout: 2 * time.Second,
	})
}

func TestUssdClient_Dial(t *testing.T) {
	var got dialRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ussd/dial", r.URL.Path)
		assert.Equal(t, "Bearer bridge-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	u := NewUssdClient(client, "http://engine:8080/")
	err := u.Dial(context.Background(), engine.DialRequest{TransactionID: "t 1", Code: "*180*5#", SimID: 2})

	require.NoError(t, err)
	assert.Equal(t, "t 1", got.TransactionID)
	assert.Equal(t, "*180*5#", got.Code)
	assert.Equal(t, 2, got.SimID)
	assert.Equal(t, "http://engine:8080/api/v1/ussd/callback/t%201", got.CallbackURL)
}

func TestUssdClient_Dial_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"no permission", http.StatusForbidden, domainErrors.ErrCapabilityUnavailable},
		{"no telephony", http.StatusFailedDependency, domainErrors.ErrCapabilityUnavailable},
		{"bridge error", http.StatusInternalServerError, domainErrors.ErrTransportFailure},
		{"bad request", http.StatusBadRequest, domainErrors.ErrTransportFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			err := NewUssdClient(client, "http://engine").Dial(context.Background(), engine.DialRequest{TransactionID: "t", Code: "*1#"})

			assert.ErrorIs(t, err, tt.want)
			var statusErr *StatusError
			assert.False(t, errors.As(err, &statusErr), "status error is flattened into the message")
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestUssdClient_Dial_UnreachableBridge(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(&config.GatewayConfig{BaseURL: base, RequestTimeout: time.Second})
	err := NewUssdClient(client, "http://engine").Dial(context.Background(), engine.DialRequest{TransactionID: "t", Code: "*1#"})

	assert.ErrorIs(t, err, domainErrors.ErrCapabilityUnavailable)
}

func TestSmsClient_Send(t *testing.T) {
	var got sendRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	s := NewSmsClient(client, NewSmsBreaker(3, time.Minute, metrics), metrics)
	require.NoError(t, s.Send(context.Background(), "0712345678", "hello"))

	assert.Equal(t, sendRequest{To: "0712345678", Body: "hello"}, got)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("sms", "success")))
}

func TestSmsClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	s := NewSmsClient(client, NewSmsBreaker(2, time.Minute, metrics), metrics)
	ctx := context.Background()

	var statusErr *StatusError
	assert.ErrorAs(t, s.Send(ctx, "1", "a"), &statusErr)
	assert.ErrorAs(t, s.Send(ctx, "1", "b"), &statusErr)

	err := s.Send(ctx, "1", "c")
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("sms")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("sms", "rejected")))
}

func TestSimClient_ActiveSims(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sims", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sims":[{"subscription_id":3,"display_name":"Safaricom","slot_index":1}]}`))
	})

	sims, err := NewSimClient(client).ActiveSims(context.Background())

	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, 3, sims[0].SubscriptionID)
	assert.Equal(t, "Safaricom", sims[0].DisplayName)
	assert.Equal(t, 1, sims[0].SlotIndex)
}

func TestSimClient_EmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	sims, err := NewSimClient(client).ActiveSims(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, sims)
	assert.Empty(t, sims)
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{Method: "GET", Path: "/sims", Code: 500, Body: "boom"}
	assert.Equal(t, "bridge GET /sims: status 500: boom", err.Error())
}

func TestSimClient_BridgeErrorIsGatewayUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewSimClient(client).ActiveSims(context.Background())

	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}
