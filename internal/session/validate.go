package session

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/brightech/goldpay/internal/models"
)

// ValidationError reports the first field that failed pre-flight validation.
// It never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate performs fail-fast validation of a payment request, in order:
// amount numeric and positive with at most two decimals, amount at or above
// the floor, contact long enough, payer name non-empty, product reference
// complete, reference rate present. Pure check, no side effects.
func Validate(req models.PaymentRequest, minAmount decimal.Decimal) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.Sign() <= 0 || amount.Exponent() < -2 {
		return &ValidationError{
			Field:  "amount",
			Reason: "please enter a valid amount greater than 0",
		}
	}

	if amount.LessThan(minAmount) {
		return &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("minimum payment amount is %s", minAmount.String()),
		}
	}

	if len(req.Contact) < minContactLength {
		return &ValidationError{
			Field:  "contact",
			Reason: "valid phone number not found, please login again",
		}
	}

	if strings.TrimSpace(req.PayerName) == "" {
		return &ValidationError{
			Field:  "name",
			Reason: "user name not found, please login again",
		}
	}

	if req.Product.RegNo == "" || req.Product.GroupCode == "" {
		return &ValidationError{
			Field:  "product",
			Reason: "product details are missing, please try again",
		}
	}

	if req.ReferenceRate == nil {
		return &ValidationError{
			Field:  "reference_rate",
			Reason: "gold rate not available, please refresh and try again",
		}
	}

	return nil
}

const minContactLength = 10
