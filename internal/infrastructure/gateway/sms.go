package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
)

const smsBreakerName = "sms"

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// SmsClient sends SMS through the bridge behind a circuit breaker.
type SmsClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	metrics *observability.Metrics
}

func NewSmsClient(client *Client, breaker *gobreaker.CircuitBreaker[struct{}], metrics *observability.Metrics) *SmsClient {
	return &SmsClient{client: client, breaker: breaker, metrics: metrics}
}

func (s *SmsClient) Send(ctx context.Context, to, body string) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.client.do(ctx, http.MethodPost, "/sms/send", sendRequest{To: to, Body: body}, nil)
	})
	s.count(err)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	return err
}

func (s *SmsClient) count(err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	s.metrics.CircuitBreakerRequests.WithLabelValues(smsBreakerName, result).Inc()
}

// NewSmsBreaker is the breaker NewSmsClient expects in production.
func NewSmsBreaker(threshold int, timeout time.Duration, metrics *observability.Metrics) *gobreaker.CircuitBreaker[struct{}] {
	return NewBreaker(smsBreakerName, threshold, timeout, metrics)
}
