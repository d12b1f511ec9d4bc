package gateway

import (
	"context"
	"fmt"
	"net/http"

	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

type simsResponse struct {
	Sims []transaction.Sim `json:"sims"`
}

// SimClient lists the subscriptions active on the handset.
type SimClient struct {
	client *Client
}

func NewSimClient(client *Client) *SimClient {
	return &SimClient{client: client}
}

func (s *SimClient) ActiveSims(ctx context.Context) ([]transaction.Sim, error) {
	var resp simsResponse
	if err := s.client.do(ctx, http.MethodGet, "/sims", nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	if resp.Sims == nil {
		return []transaction.Sim{}, nil
	}
	return resp.Sims, nil
}
