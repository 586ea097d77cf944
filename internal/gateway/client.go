package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/brightech/goldpay/internal/metrics"
	"github.com/brightech/goldpay/internal/models"
	"github.com/brightech/goldpay/internal/patterns"
)

// Client talks to the gateway-integration service: it creates hosted payment
// links and reports their settlement status. Link creation and verification
// use separate HTTP clients because their timeout budgets differ.
type Client struct {
	linkClient   *resty.Client
	verifyClient *resty.Client
	baseURL      string
	circuit      *patterns.CircuitBreakerWrapper
	bulkhead     *patterns.Bulkhead
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		linkClient: resty.New().
			SetTimeout(patterns.LinkCreateTimeout).
			SetRetryCount(0), // No automatic retries, polling is the retry mechanism
		verifyClient: resty.New().
			SetTimeout(patterns.VerifyPollTimeout).
			SetRetryCount(0),
		baseURL:  strings.TrimRight(baseURL, "/"),
		circuit:  patterns.NewCircuitBreaker("Gateway"),
		bulkhead: patterns.NewBulkhead(10, "gateway"),
	}
}

// CreateLink requests a hosted payment page. Exactly one network request is
// issued; any failure aborts the session before verification timers are armed.
func (c *Client) CreateLink(ctx context.Context, req models.CreateLinkRequest) (*models.CreateLinkResponse, error) {
	var out *models.CreateLinkResponse

	start := time.Now()
	err := c.bulkhead.Execute(func() error {
		result, cbErr := c.circuit.Execute(func() (interface{}, error) {
			resp, httpErr := c.linkClient.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetHeader("Accept", "application/json").
				SetBody(req).
				Post(c.baseURL + "/api/payment/create-payment-link")

			if httpErr != nil {
				if isTimeout(httpErr) {
					return nil, fmt.Errorf("create payment link: %w", ErrNetworkTimeout)
				}
				return nil, fmt.Errorf("create payment link: %w", httpErr)
			}

			if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
				return nil, &GatewayError{
					StatusCode: resp.StatusCode(),
					Reason:     serverReason(resp.Body()),
				}
			}

			var body models.CreateLinkResponse
			if err := json.Unmarshal(resp.Body(), &body); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
			if body.PaymentLink == "" || body.OrderID == "" {
				return nil, ErrMalformedResponse
			}

			return &body, nil
		})

		if cbErr != nil {
			return patterns.FormatError("Gateway", cbErr)
		}
		out = result.(*models.CreateLinkResponse)
		return nil
	})
	metrics.LinkCreationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id": out.OrderID,
	}).Info("Payment link created")

	return out, nil
}

// Verify fetches the settlement status for an order. Errors here are not
// decisive: the caller treats them as "still pending" and keeps polling.
func (c *Client) Verify(ctx context.Context, orderID string) (*models.VerifyResponse, error) {
	resp, err := c.verifyClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("orderId", orderID).
		Get(c.baseURL + "/api/payment/verify")

	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("verify payment: %w", ErrNetworkTimeout)
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Reason: serverReason(resp.Body())}
	}

	var body models.VerifyResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("verify payment: decode response: %w", err)
	}

	return &body, nil
}

// CircuitState exposes the link-creation breaker state for the status endpoint.
func (c *Client) CircuitState() string {
	return c.circuit.GetState()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// serverReason pulls a human-readable reason out of an error body when the
// gateway supplies one, falling back to the raw body.
func serverReason(body []byte) string {
	var wrapped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Error != "" {
			return wrapped.Error
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	reason := strings.TrimSpace(string(body))
	if len(reason) > 200 {
		reason = reason[:200]
	}
	return reason
}
