package rates

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"shipping-rates-service/internal/models"
)

type stubFreightAPI struct {
	creds  bool
	quotes []models.RateQuote
	err    error
	called bool
}

func (s *stubFreightAPI) HasCredentials() bool { return s.creds }

func (s *stubFreightAPI) GetRates(ctx context.Context, request FreightRateRequest) ([]models.RateQuote, error) {
	s.called = true
	return s.quotes, s.err
}

func discardEntry() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func freightRequest(state string, weight float64) FreightRateRequest {
	return FreightRateRequest{
		FromAddress: models.Address{State: "MN", PostalCode: "55418", Country: "US"},
		ToAddress:   models.Address{State: state, PostalCode: "75220", Country: "US"},
		WeightLbs:   weight,
	}
}

func TestFreightServiceLivePrecedence(t *testing.T) {
	api := &stubFreightAPI{
		creds: true,
		quotes: []models.RateQuote{
			{Method: models.MethodFreight, Carrier: "Carrier C", Rate: 300},
			{Method: models.MethodFreight, Carrier: "Carrier A", Rate: 100},
			{Method: models.MethodFreight, Carrier: "Carrier D", Rate: 400},
			{Method: models.MethodFreight, Carrier: "Carrier B", Rate: 200},
		},
	}

	svc := NewFreightService(api, NewFallbackTable(), 25, discardEntry())
	result := svc.Quote(context.Background(), freightRequest("TX", 400))

	// Even though the fallback table would also succeed for TX, live quotes
	// always win.
	assert.Equal(t, models.FreightSourceAPI, result.Source)
	assert.Empty(t, result.Err)

	// Top 3 by ascending price with the 25% markup applied.
	assert.Len(t, result.Quotes, 3)
	assert.Equal(t, "Carrier A", result.Quotes[0].Carrier)
	assert.Equal(t, 125.0, result.Quotes[0].Rate)
	assert.Equal(t, "Carrier B", result.Quotes[1].Carrier)
	assert.Equal(t, 250.0, result.Quotes[1].Rate)
	assert.Equal(t, "Carrier C", result.Quotes[2].Carrier)
	assert.Equal(t, 375.0, result.Quotes[2].Rate)
}

func TestFreightServiceFallbackOnLiveFailure(t *testing.T) {
	api := &stubFreightAPI{creds: true, err: errors.New("upstream 503")}

	svc := NewFreightService(api, NewFallbackTable(), 25, discardEntry())
	result := svc.Quote(context.Background(), freightRequest("TX", 400))

	assert.True(t, api.called)
	assert.Equal(t, models.FreightSourceFallback, result.Source)
	assert.Len(t, result.Quotes, 1)
	assert.Equal(t, models.MethodFreightFallback, result.Quotes[0].Method)
	// A fallback success clears the live-API error.
	assert.Empty(t, result.Err)
}

func TestFreightServiceNoCredentialsUsesFallback(t *testing.T) {
	api := &stubFreightAPI{creds: false}

	svc := NewFreightService(api, NewFallbackTable(), 25, discardEntry())
	result := svc.Quote(context.Background(), freightRequest("TX", 400))

	assert.False(t, api.called)
	assert.Equal(t, models.FreightSourceFallback, result.Source)
	// Fallback rates carry no markup; the table is already an estimate.
	assert.Equal(t, 260.0, result.Quotes[0].Rate)
}

func TestFreightServiceUnsupportedDestination(t *testing.T) {
	api := &stubFreightAPI{creds: false}

	svc := NewFreightService(api, NewFallbackTable(), 25, discardEntry())
	result := svc.Quote(context.Background(), freightRequest("AK", 400))

	assert.Empty(t, result.Quotes)
	assert.Empty(t, result.Source)
	assert.Contains(t, result.Err, "contact support")
}

func TestFreightServiceEmptyLiveResponseFallsBack(t *testing.T) {
	api := &stubFreightAPI{creds: true, quotes: nil}

	svc := NewFreightService(api, NewFallbackTable(), 25, discardEntry())
	result := svc.Quote(context.Background(), freightRequest("TX", 400))

	assert.True(t, api.called)
	assert.Equal(t, models.FreightSourceFallback, result.Source)
	assert.Empty(t, result.Err)
}
