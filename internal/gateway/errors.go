package gateway

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a 2xx link-creation response missing the payment
// link or order id. Hard failure, never retried.
var ErrMalformedResponse = errors.New("payment link or order id not received from gateway")

// ErrNetworkTimeout marks a bounded request timeout on a gateway call.
var ErrNetworkTimeout = errors.New("gateway request timed out")

// GatewayError carries the server-reported reason for a non-2xx response.
type GatewayError struct {
	StatusCode int
	Reason     string
}

func (e *GatewayError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}
