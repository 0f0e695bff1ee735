package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"shipping-rates-service/internal/models"
)

// FreightRateRequest is the normalized input to LTL quoting, live or
// fallback.
type FreightRateRequest struct {
	FromAddress models.Address
	ToAddress   models.Address
	WeightLbs   float64
	LengthIn    float64
	WidthIn     float64
	HeightIn    float64
	Liftgate    bool
	Residential bool
	Hazmat      bool
}

// FreightConfig holds LTL quoting API credentials.
type FreightConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// FreightQuoteResult is the outcome of a freight quoting attempt. Source is
// "api" or "fallback" when quotes are present; Err carries a human-readable
// message when no freight option could be produced.
type FreightQuoteResult struct {
	Quotes []models.RateQuote
	Source string
	Err    string
}

// LiveFreightAPI abstracts the live LTL quoting provider so the service can
// be tested without network calls.
type LiveFreightAPI interface {
	HasCredentials() bool
	GetRates(ctx context.Context, request FreightRateRequest) ([]models.RateQuote, error)
}

// FreightClient is a thin adapter to the LTL freight quoting API.
type FreightClient struct {
	config     FreightConfig
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewFreightClient creates a freight rate client.
func NewFreightClient(config FreightConfig, logger *logrus.Entry) *FreightClient {
	return &FreightClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		logger: logger,
	}
}

// HasCredentials reports whether live LTL quoting is configured.
func (c *FreightClient) HasCredentials() bool {
	return c.config.APIKey != "" && c.config.BaseURL != ""
}

// GetRates fetches live LTL quotes and normalizes them, unsorted and
// without markup; FreightService owns ranking and pricing policy.
func (c *FreightClient) GetRates(ctx context.Context, request FreightRateRequest) ([]models.RateQuote, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("freight API credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/v2/quotes", c.config.BaseURL)

	accessorials := []string{}
	if request.Liftgate {
		accessorials = append(accessorials, "LIFTGATE_DELIVERY")
	}
	if request.Residential {
		accessorials = append(accessorials, "RESIDENTIAL_DELIVERY")
	}
	if request.Hazmat {
		accessorials = append(accessorials, "HAZMAT")
	}

	payload := map[string]interface{}{
		"origin": map[string]string{
			"postal_code": request.FromAddress.PostalCode,
			"state":       request.FromAddress.State,
			"country":     request.FromAddress.Country,
		},
		"destination": map[string]string{
			"postal_code": request.ToAddress.PostalCode,
			"state":       request.ToAddress.State,
			"city":        request.ToAddress.City,
			"country":     request.ToAddress.Country,
		},
		"items": []map[string]interface{}{
			{
				"weight_lbs": request.WeightLbs,
				"length_in":  request.LengthIn,
				"width_in":   request.WidthIn,
				"height_in":  request.HeightIn,
			},
		},
		"accessorials": accessorials,
		"pickup_date":  time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))
	if c.config.APISecret != "" {
		req.Header.Set("Client-Secret", c.config.APISecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("freight API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var quotesResp struct {
		Quotes []struct {
			CarrierName  string     `json:"carrier_name"`
			ServiceLevel string     `json:"service_level"`
			TotalCharge  float64    `json:"total_charge"`
			TransitDays  *int       `json:"transit_days"`
			DeliveryDate *time.Time `json:"estimated_delivery_date"`
			Guaranteed   bool       `json:"guaranteed"`
		} `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&quotesResp); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	quotes := make([]models.RateQuote, 0, len(quotesResp.Quotes))
	for _, q := range quotesResp.Quotes {
		service := q.ServiceLevel
		if service == "" {
			service = "Standard LTL"
		}
		quotes = append(quotes, models.RateQuote{
			Method:       models.MethodFreight,
			Carrier:      q.CarrierName,
			Service:      service,
			Rate:         q.TotalCharge,
			TransitDays:  q.TransitDays,
			DeliveryDate: q.DeliveryDate,
			Guaranteed:   q.Guaranteed,
		})
	}
	return quotes, nil
}

// FreightService combines the live LTL client with the static fallback
// table. Preference order is always live API first, fallback second: live
// quotes reflect real carrier capacity and pricing.
type FreightService struct {
	client        LiveFreightAPI
	table         *FallbackTable
	markupPercent float64
	maxQuotes     int
	logger        *logrus.Entry
}

// NewFreightService creates a freight quoting service with the given markup
// percentage (e.g. 25 for +25%) applied to live API quotes.
func NewFreightService(client LiveFreightAPI, table *FallbackTable, markupPercent float64, logger *logrus.Entry) *FreightService {
	return &FreightService{
		client:        client,
		table:         table,
		markupPercent: markupPercent,
		maxQuotes:     3,
		logger:        logger,
	}
}

// MarkupPercent returns the configured live-quote markup percentage.
func (s *FreightService) MarkupPercent() float64 {
	return s.markupPercent
}

// Quote attempts a live LTL quote, then the static fallback table. The
// result never carries both quotes and an error: a fallback success clears
// any live-API error.
func (s *FreightService) Quote(ctx context.Context, request FreightRateRequest) FreightQuoteResult {
	var result FreightQuoteResult

	if s.client != nil && s.client.HasCredentials() {
		quotes, err := s.client.GetRates(ctx, request)
		if err != nil {
			if s.logger != nil {
				s.logger.WithError(err).Warn("Live freight quote failed, trying fallback table")
			}
			result.Err = fmt.Sprintf("live freight quoting failed: %v", err)
		} else if len(quotes) > 0 {
			sort.Slice(quotes, func(i, j int) bool { return quotes[i].Rate < quotes[j].Rate })
			if len(quotes) > s.maxQuotes {
				quotes = quotes[:s.maxQuotes]
			}
			for i := range quotes {
				quotes[i].Rate = quotes[i].Rate * (1 + s.markupPercent/100)
			}
			result.Quotes = quotes
			result.Source = models.FreightSourceAPI
			return result
		} else {
			result.Err = "live freight quoting returned no quotes"
		}
	}

	quote, err := s.table.Lookup(request.ToAddress.State, request.WeightLbs, request.Liftgate, request.Residential)
	if err != nil {
		// Keep whichever message is most actionable for the customer.
		result.Err = err.Error()
		return result
	}

	result.Quotes = []models.RateQuote{quote}
	result.Source = models.FreightSourceFallback
	result.Err = ""
	return result
}
