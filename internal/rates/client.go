package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/brightech/goldpay/internal/metrics"
	"github.com/brightech/goldpay/internal/models"
	"github.com/brightech/goldpay/internal/patterns"
)

// ErrInvalidRate marks a rate response that is missing or not a positive number.
var ErrInvalidRate = errors.New("invalid gold rate received from server")

// Client fetches the current gold buying rate used as the reference rate for
// payment requests and for amount-to-weight conversion.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a rate-lookup client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(patterns.RateLookupTimeout).
			SetRetryCount(0),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// TodayRate returns today's buying rate in rupees per gram.
func (c *Client) TodayRate(ctx context.Context) (float64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.baseURL + "/v1/api/account/todayrate")

	if err != nil {
		metrics.RateLookupsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("fetch gold rate: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		metrics.RateLookupsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("fetch gold rate: HTTP %d", resp.StatusCode())
	}

	var body models.TodayRateResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		metrics.RateLookupsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: %v", ErrInvalidRate, err)
	}
	if body.Rate <= 0 {
		metrics.RateLookupsTotal.WithLabelValues("invalid").Inc()
		return 0, ErrInvalidRate
	}

	metrics.RateLookupsTotal.WithLabelValues("success").Inc()
	return body.Rate, nil
}

// AmountToWeight converts a rupee amount into grams of gold at the given
// rate, rounded to 3 decimals. Returns an error for non-positive inputs.
func AmountToWeight(amount string, rate float64) (string, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if amt.Sign() <= 0 || rate <= 0 {
		return "", fmt.Errorf("amount and rate must be positive")
	}

	grams := amt.Div(decimal.NewFromFloat(rate))
	return grams.StringFixed(3), nil
}
