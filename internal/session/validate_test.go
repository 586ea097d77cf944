package session

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightech/goldpay/internal/models"
)

func TestValidate(t *testing.T) {
	minAmount := decimal.NewFromInt(1)

	tests := []struct {
		name      string
		mutate    func(*models.PaymentRequest)
		wantField string
	}{
		{
			name:   "well-formed request",
			mutate: func(r *models.PaymentRequest) {},
		},
		{
			name:      "zero amount",
			mutate:    func(r *models.PaymentRequest) { r.Amount = "0" },
			wantField: "amount",
		},
		{
			name:      "negative amount",
			mutate:    func(r *models.PaymentRequest) { r.Amount = "-10" },
			wantField: "amount",
		},
		{
			name:      "non-numeric amount",
			mutate:    func(r *models.PaymentRequest) { r.Amount = "ten" },
			wantField: "amount",
		},
		{
			name:      "more than two decimals",
			mutate:    func(r *models.PaymentRequest) { r.Amount = "10.999" },
			wantField: "amount",
		},
		{
			name:      "below minimum",
			mutate:    func(r *models.PaymentRequest) { r.Amount = "0.50" },
			wantField: "amount",
		},
		{
			name:      "short contact",
			mutate:    func(r *models.PaymentRequest) { r.Contact = "12345" },
			wantField: "contact",
		},
		{
			name:      "blank payer name",
			mutate:    func(r *models.PaymentRequest) { r.PayerName = "   " },
			wantField: "name",
		},
		{
			name:      "missing registration number",
			mutate:    func(r *models.PaymentRequest) { r.Product.RegNo = "" },
			wantField: "product",
		},
		{
			name:      "missing group code",
			mutate:    func(r *models.PaymentRequest) { r.Product.GroupCode = "" },
			wantField: "product",
		},
		{
			name:      "missing reference rate",
			mutate:    func(r *models.PaymentRequest) { r.ReferenceRate = nil },
			wantField: "reference_rate",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			err := Validate(req, minAmount)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantField, vErr.Field)
			assert.NotEmpty(t, vErr.Reason)
		})
	}
}

// Checks run in a fixed order and fail fast on the first violation.
func TestValidateCitesFirstViolation(t *testing.T) {
	req := validRequest()
	req.Amount = "0"
	req.Contact = "123"
	req.PayerName = ""

	err := Validate(req, decimal.NewFromInt(1))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
}
