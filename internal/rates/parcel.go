// Package rates contains the adapters to external rate-quoting providers
// and the static freight fallback table. Each adapter maps its provider's
// response shape into the normalized models.RateQuote; provider field names
// never leak past this package.
package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"shipping-rates-service/internal/models"
)

// ParcelRateRequest is the normalized input to the small-parcel rate API.
type ParcelRateRequest struct {
	FromAddress models.Address
	ToAddress   models.Address
	WeightLbs   float64
	LengthIn    float64
	WidthIn     float64
	HeightIn    float64
}

// ParcelConfig holds small-parcel rate API credentials.
type ParcelConfig struct {
	APIKey  string
	BaseURL string
}

// parcelAllowList maps provider (carrier_code, service_code) pairs to the
// canonical display names we expose. Exactly two ground-economy services are
// offered, one per major carrier; everything else the provider returns is
// discarded.
var parcelAllowList = map[string]struct{ Carrier, Service string }{
	"ups:ups_ground":             {"UPS", "UPS Ground"},
	"usps:usps_ground_advantage": {"USPS", "USPS Ground Advantage"},
}

// ParcelClient is a thin adapter to the small-parcel rate API.
type ParcelClient struct {
	config     ParcelConfig
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewParcelClient creates a parcel rate client.
func NewParcelClient(config ParcelConfig, logger *logrus.Entry) *ParcelClient {
	return &ParcelClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// HasCredentials reports whether the client is configured for live quoting.
func (c *ParcelClient) HasCredentials() bool {
	return c.config.APIKey != "" && c.config.BaseURL != ""
}

// GetRates fetches small-parcel quotes and normalizes them. Callers treat
// any error as "no parcel options" and continue with other carriers.
func (c *ParcelClient) GetRates(ctx context.Context, request ParcelRateRequest) ([]models.RateQuote, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("parcel rate API credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/rates/estimate", c.config.BaseURL)
	payload := map[string]interface{}{
		"from_postal_code": request.FromAddress.PostalCode,
		"from_state":       request.FromAddress.State,
		"from_country":     request.FromAddress.Country,
		"to_postal_code":   request.ToAddress.PostalCode,
		"to_state":         request.ToAddress.State,
		"to_city":          request.ToAddress.City,
		"to_country":       request.ToAddress.Country,
		"weight":           map[string]interface{}{"value": request.WeightLbs, "unit": "pound"},
		"dimensions": map[string]interface{}{
			"length": request.LengthIn,
			"width":  request.WidthIn,
			"height": request.HeightIn,
			"unit":   "inch",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("parcel rate API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var ratesResp struct {
		RateResponse struct {
			Rates []struct {
				CarrierCode  string  `json:"carrier_code"`
				ServiceCode  string  `json:"service_code"`
				ServiceType  string  `json:"service_type"`
				ShippingCost float64 `json:"shipping_amount"`
				DeliveryDays *int    `json:"delivery_days"`
				EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
				GuaranteedService     bool       `json:"guaranteed_service"`
			} `json:"rates"`
		} `json:"rate_response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ratesResp); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}

	quotes := make([]models.RateQuote, 0, 2)
	for _, rate := range ratesResp.RateResponse.Rates {
		key := fmt.Sprintf("%s:%s", rate.CarrierCode, rate.ServiceCode)
		display, ok := parcelAllowList[key]
		if !ok {
			continue
		}
		quotes = append(quotes, models.RateQuote{
			Method:       models.MethodParcel,
			Carrier:      display.Carrier,
			Service:      display.Service,
			Rate:         rate.ShippingCost,
			TransitDays:  rate.DeliveryDays,
			DeliveryDate: rate.EstimatedDeliveryDate,
			Guaranteed:   rate.GuaranteedService,
		})
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"returned": len(ratesResp.RateResponse.Rates),
			"kept":     len(quotes),
		}).Info("Parcel rates retrieved")
	}
	return quotes, nil
}
