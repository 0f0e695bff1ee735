package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"shipping-rates-service/internal/models"
)

func parcelRequest() ParcelRateRequest {
	return ParcelRateRequest{
		FromAddress: models.Address{State: "MN", PostalCode: "55418", Country: "US"},
		ToAddress:   models.Address{State: "MA", PostalCode: "02144", Country: "US"},
		WeightLbs:   8,
		LengthIn:    20,
		WidthIn:     12,
		HeightIn:    10,
	}
}

func TestParcelClientFiltersAndRenames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rates/estimate", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("API-Key"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "02144", payload["to_postal_code"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"rate_response": {
				"rates": [
					{"carrier_code": "ups", "service_code": "ups_ground", "shipping_amount": 14.52, "delivery_days": 3},
					{"carrier_code": "usps", "service_code": "usps_ground_advantage", "shipping_amount": 11.80, "delivery_days": 4},
					{"carrier_code": "ups", "service_code": "ups_next_day_air", "shipping_amount": 62.10, "delivery_days": 1},
					{"carrier_code": "fedex", "service_code": "fedex_ground", "shipping_amount": 13.90, "delivery_days": 3}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewParcelClient(ParcelConfig{APIKey: "test-key", BaseURL: server.URL}, discardEntry())
	quotes, err := client.GetRates(context.Background(), parcelRequest())

	assert.NoError(t, err)
	// Only the two allow-listed ground services survive, renamed for display.
	assert.Len(t, quotes, 2)
	assert.Equal(t, "UPS", quotes[0].Carrier)
	assert.Equal(t, "UPS Ground", quotes[0].Service)
	assert.Equal(t, models.MethodParcel, quotes[0].Method)
	assert.Equal(t, 14.52, quotes[0].Rate)
	assert.Equal(t, 3, *quotes[0].TransitDays)
	assert.Equal(t, "USPS", quotes[1].Carrier)
	assert.Equal(t, "USPS Ground Advantage", quotes[1].Service)
}

func TestParcelClientNoCredentials(t *testing.T) {
	client := NewParcelClient(ParcelConfig{}, discardEntry())

	assert.False(t, client.HasCredentials())
	_, err := client.GetRates(context.Background(), parcelRequest())
	assert.Error(t, err)
}

func TestParcelClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewParcelClient(ParcelConfig{APIKey: "test-key", BaseURL: server.URL}, discardEntry())
	_, err := client.GetRates(context.Background(), parcelRequest())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
