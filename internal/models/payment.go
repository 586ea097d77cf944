package models

import "time"

// ProductRef identifies the savings scheme a payment is made toward.
type ProductRef struct {
	RegNo     string `json:"regno"`
	GroupCode string `json:"groupcode"`
}

// PaymentRequest carries the user-supplied inputs for one payment attempt.
// Amount is kept as the raw string the user typed so validation can reject
// malformed numbers instead of silently coercing them.
type PaymentRequest struct {
	Amount        string     `json:"amount"`
	PayerName     string     `json:"name"`
	Contact       string     `json:"contact"`
	Product       ProductRef `json:"product"`
	ReferenceRate *float64   `json:"reference_rate"`
}

// SessionState is the lifecycle state of a payment session.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateCreating     SessionState = "creating"
	StateAwaitingUser SessionState = "awaiting_user"
	StateVerifying    SessionState = "verifying"
	StateSucceeded    SessionState = "succeeded"
	StateFailed       SessionState = "failed"
	StateTimedOut     SessionState = "timed_out"
	StateCancelled    SessionState = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s SessionState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// SessionSnapshot is a point-in-time view of a session for API consumers.
type SessionSnapshot struct {
	SessionID   string       `json:"session_id"`
	OrderID     string       `json:"order_id,omitempty"`
	PaymentLink string       `json:"payment_link,omitempty"`
	State       SessionState `json:"state"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	DeadlineAt  time.Time    `json:"deadline_at,omitempty"`
}
