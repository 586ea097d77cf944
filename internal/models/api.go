package models

// StartSessionResponse is returned after a session has been created and its
// payment link is ready for the embedded browser.
type StartSessionResponse struct {
	SessionID   string       `json:"session_id"`
	OrderID     string       `json:"order_id"`
	PaymentLink string       `json:"payment_link"`
	State       SessionState `json:"state"`
}

// NavigationEvent reports an embedded-browser address change.
type NavigationEvent struct {
	URL string `json:"url" binding:"required"`
}

// BrowserErrorEvent reports an embedded-browser load failure.
type BrowserErrorEvent struct {
	Description string `json:"description"`
}

// ErrorResponse is the error body for all service endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
