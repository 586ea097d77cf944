package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightech/goldpay/internal/models"
)

func TestTodayRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/account/todayrate", r.URL.Path)
		json.NewEncoder(w).Encode(models.TodayRateResponse{Rate: 6000})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	rate, err := client.TodayRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6000.0, rate)
}

func TestTodayRateRejectsInvalidRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"Rate": 0})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.TodayRate(context.Background())
	require.ErrorIs(t, err, ErrInvalidRate)
}

func TestTodayRateNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.TodayRate(context.Background())
	require.Error(t, err)
}

func TestAmountToWeight(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		rate    float64
		want    string
		wantErr bool
	}{
		{name: "round conversion", amount: "6000", rate: 6000, want: "1.000"},
		{name: "fractional grams", amount: "250.00", rate: 6000, want: "0.042"},
		{name: "small amount", amount: "1", rate: 6000, want: "0.000"},
		{name: "zero amount", amount: "0", rate: 6000, wantErr: true},
		{name: "zero rate", amount: "100", rate: 0, wantErr: true},
		{name: "garbage amount", amount: "abc", rate: 6000, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AmountToWeight(tc.amount, tc.rate)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
