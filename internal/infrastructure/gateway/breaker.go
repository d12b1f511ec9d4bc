package gateway

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

// NewBreaker builds a circuit breaker that trips after threshold consecutive
// failures and reports its state on the circuit_breaker_state gauge.
func NewBreaker(name string, threshold int, timeout time.Duration, metrics *observability.Metrics) *gobreaker.CircuitBreaker[struct{}] {
	if threshold <= 0 {
		threshold = 5
	}
	if metrics != nil {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     timeoutOrDefault(timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			if metrics != nil {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			}
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
