package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
)

type dialRequest struct {
	TransactionID string `json:"transaction_id"`
	Code          string `json:"code"`
	SimID         int    `json:"sim_id"`
	CallbackURL   string `json:"callback_url"`
}

// UssdClient asks the bridge to dial a USSD code. The bridge posts the
// response to CallbackURL when it arrives.
type UssdClient struct {
	client       *Client
	callbackBase string
}

func NewUssdClient(client *Client, callbackBaseURL string) *UssdClient {
	return &UssdClient{client: client, callbackBase: strings.TrimRight(callbackBaseURL, "/")}
}

// Dial returns ErrCapabilityUnavailable when the bridge is unreachable, lacks
// the call permission (403) or has no telephony service (424).
func (u *UssdClient) Dial(ctx context.Context, req engine.DialRequest) error {
	err := u.client.do(ctx, http.MethodPost, "/ussd/dial", dialRequest{
		TransactionID: req.TransactionID,
		Code:          req.Code,
		SimID:         req.SimID,
		CallbackURL:   u.callbackBase + "/api/v1/ussd/callback/" + url.PathEscape(req.TransactionID),
	}, nil)
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusForbidden, http.StatusFailedDependency:
			return fmt.Errorf("%w: %v", domainErrors.ErrCapabilityUnavailable, err)
		}
		return fmt.Errorf("%w: %v", domainErrors.ErrTransportFailure, err)
	}
	if isUnreachable(err) {
		return fmt.Errorf("%w: %v", domainErrors.ErrCapabilityUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domainErrors.ErrTransportFailure, err)
}
