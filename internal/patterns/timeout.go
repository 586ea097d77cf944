package patterns

import (
	"context"
	"time"
)

// WithTimeout creates a context with timeout for fail-fast behavior
func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// LinkCreateTimeout bounds the create-payment-link call. Distinct from the
// verification deadline: a hung link creation must fail fast, not eat into
// the payment window.
const LinkCreateTimeout = 30 * time.Second

// VerifyPollTimeout bounds each individual verification request.
const VerifyPollTimeout = 10 * time.Second

// RateLookupTimeout bounds the reference-rate lookup.
const RateLookupTimeout = 10 * time.Second

// PollInterval is the spacing between verification polls.
const PollInterval = 5 * time.Second

// VerifyDeadline is the hard window for a payment to resolve before the
// session times out.
const VerifyDeadline = 5 * time.Minute
