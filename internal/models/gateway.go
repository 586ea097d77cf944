package models

// LinkCustomer is the customer block of the create-payment-link request.
// Field casing matches the gateway contract.
type LinkCustomer struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	RegNo     string `json:"REGNO"`
	GroupCode string `json:"GROUPCODE"`
}

// CreateLinkRequest is the body of POST /api/payment/create-payment-link.
type CreateLinkRequest struct {
	Amount   float64      `json:"amount"`
	Customer LinkCustomer `json:"customer"`
}

// CreateLinkResponse is the gateway's reply to a link-creation request.
// Both fields are required; a 2xx response missing either is malformed.
type CreateLinkResponse struct {
	PaymentLink string `json:"payment_link"`
	OrderID     string `json:"order_id"`
}

// VerifyResponse is the reply of GET /api/payment/verify.
type VerifyResponse struct {
	Success        bool   `json:"success"`
	RazorpayStatus string `json:"razorpay_status"`
}

// Verification status values. Anything else is treated as still pending.
const (
	VerifyStatusPaid      = "paid"
	VerifyStatusFailed    = "failed"
	VerifyStatusCancelled = "cancelled"
)

// TodayRateResponse is the reply of GET /v1/api/account/todayrate.
type TodayRateResponse struct {
	Rate float64 `json:"Rate"`
}
