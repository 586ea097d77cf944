package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightech/goldpay/internal/models"
)

func linkRequest() models.CreateLinkRequest {
	return models.CreateLinkRequest{
		Amount: 250,
		Customer: models.LinkCustomer{
			Name:      "Asha",
			Contact:   "9876543210",
			RegNo:     "A1",
			GroupCode: "G1",
		},
	}
}

func TestCreateLinkSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/payment/create-payment-link", r.URL.Path)

		var body models.CreateLinkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 250.0, body.Amount)
		assert.Equal(t, "A1", body.Customer.RegNo)
		assert.Equal(t, "G1", body.Customer.GroupCode)

		json.NewEncoder(w).Encode(models.CreateLinkResponse{
			PaymentLink: "https://pay/x",
			OrderID:     "O1",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.CreateLink(context.Background(), linkRequest())
	require.NoError(t, err)
	assert.Equal(t, "O1", resp.OrderID)
	assert.Equal(t, "https://pay/x", resp.PaymentLink)
}

func TestCreateLinkGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "customer not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateLink(context.Background(), linkRequest())

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusInternalServerError, gwErr.StatusCode)
	assert.Equal(t, "customer not found", gwErr.Reason)
}

func TestCreateLinkMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 2xx but missing the payment link.
		json.NewEncoder(w).Encode(map[string]string{"order_id": "O1"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateLink(context.Background(), linkRequest())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCreateLinkTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.linkClient.SetTimeout(20 * time.Millisecond)

	_, err := client.CreateLink(context.Background(), linkRequest())
	require.ErrorIs(t, err, ErrNetworkTimeout)
}

func TestVerifyDecodesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/verify", r.URL.Path)
		assert.Equal(t, "O1", r.URL.Query().Get("orderId"))

		json.NewEncoder(w).Encode(models.VerifyResponse{
			Success:        true,
			RazorpayStatus: models.VerifyStatusPaid,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Verify(context.Background(), "O1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, models.VerifyStatusPaid, resp.RazorpayStatus)
}

func TestVerifyNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Verify(context.Background(), "O1")

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadGateway, gwErr.StatusCode)
}
