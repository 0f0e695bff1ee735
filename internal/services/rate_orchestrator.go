package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"shipping-rates-service/internal/models"
	"shipping-rates-service/internal/profile"
	"shipping-rates-service/internal/rates"
	"shipping-rates-service/internal/repository"
	"shipping-rates-service/internal/warehouse"
)

// ParcelSource is the small-parcel rate collaborator as the orchestrator
// sees it.
type ParcelSource interface {
	HasCredentials() bool
	GetRates(ctx context.Context, request rates.ParcelRateRequest) ([]models.RateQuote, error)
}

// FreightQuoter is the freight quoting collaborator (live API + fallback
// table behind one call).
type FreightQuoter interface {
	MarkupPercent() float64
	Quote(ctx context.Context, request rates.FreightRateRequest) rates.FreightQuoteResult
}

// QuoteEventPublisher receives quote lifecycle events. Optional.
type QuoteEventPublisher interface {
	PublishQuoteCompleted(ctx context.Context, tenantID string, quoteCount int, freightSource string, warningCount int) error
}

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// RateOrchestrator is the top-level entry point for shipping quotes. The
// pipeline runs profile computation, warehouse selection, eligible rate
// fetches, and a deterministic merge into one ranked list. Every internal
// failure becomes a warning on the response; only invalid input aborts.
type RateOrchestrator struct {
	catalog     repository.CatalogRepository
	calculator  *profile.Calculator
	selector    *warehouse.Selector
	parcel      ParcelSource
	freight     FreightQuoter
	publisher   QuoteEventPublisher
	rateTimeout time.Duration
	logger      *logrus.Entry
}

// NewRateOrchestrator creates the rate orchestrator. publisher may be nil.
func NewRateOrchestrator(
	catalog repository.CatalogRepository,
	calculator *profile.Calculator,
	selector *warehouse.Selector,
	parcel ParcelSource,
	freight FreightQuoter,
	publisher QuoteEventPublisher,
	rateTimeout time.Duration,
	logger *logrus.Entry,
) *RateOrchestrator {
	if rateTimeout <= 0 {
		rateTimeout = 10 * time.Second
	}
	return &RateOrchestrator{
		catalog:     catalog,
		calculator:  calculator,
		selector:    selector,
		parcel:      parcel,
		freight:     freight,
		publisher:   publisher,
		rateTimeout: rateTimeout,
		logger:      logger,
	}
}

// Quote produces the shipping quote response for a cart. The returned error
// is non-nil only for structurally invalid input; collaborator failures
// degrade into warnings on a success response.
func (o *RateOrchestrator) Quote(ctx context.Context, tenantID string, req models.QuoteRequest) (*models.QuoteResponse, error) {
	if err := o.validateRequest(req); err != nil {
		return nil, err
	}

	var warnings []string

	resolved, resolveWarnings := o.resolveItems(ctx, req.Items)
	warnings = append(warnings, resolveWarnings...)

	cartProfile := o.calculator.Compute(resolved)
	if cartProfile.UsedFallbackDetection {
		warnings = append(warnings, "carrier eligibility was auto-detected because no products in the cart have shipping carrier flags configured")
	}

	shipFrom := o.selector.Select(ctx, req.Items, req.DestinationZip)

	residential := req.Residential == nil || *req.Residential

	wantParcel := (cartProfile.UPSEligible || cartProfile.USPSEligible) &&
		!cartProfile.RequiresFreight && !cartProfile.HasHazmat
	wantFreight := cartProfile.RequiresFreight || cartProfile.HasOversized

	var parcelQuotes []models.RateQuote
	var freightResult rates.FreightQuoteResult

	// Parcel and freight fetches are independent; issue them concurrently
	// and join both before merging. Each gets its own deadline so one slow
	// provider cannot stall the response.
	g := new(errgroup.Group)
	if wantParcel {
		if o.parcel != nil && o.parcel.HasCredentials() {
			g.Go(func() error {
				fetchCtx, cancel := context.WithTimeout(ctx, o.rateTimeout)
				defer cancel()

				quotes, err := o.parcel.GetRates(fetchCtx, rates.ParcelRateRequest{
					FromAddress: shipFrom.Address(),
					ToAddress:   o.destinationAddress(req),
					WeightLbs:   cartProfile.TotalWeight,
					LengthIn:    cartProfile.MaxLength,
					WidthIn:     cartProfile.MaxWidth,
					HeightIn:    cartProfile.StackedHeight,
				})
				if err != nil {
					o.logger.WithError(err).Warn("Parcel rate fetch failed")
					return nil
				}
				parcelQuotes = filterParcelByEligibility(quotes, cartProfile)
				return nil
			})
		} else {
			warnings = append(warnings, "parcel shipping is eligible but the parcel rate provider is not configured")
		}
	}
	if wantFreight {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, o.rateTimeout)
			defer cancel()

			freightResult = o.freight.Quote(fetchCtx, rates.FreightRateRequest{
				FromAddress: shipFrom.Address(),
				ToAddress:   o.destinationAddress(req),
				WeightLbs:   cartProfile.TotalWeight,
				LengthIn:    cartProfile.MaxLength,
				WidthIn:     cartProfile.MaxWidth,
				HeightIn:    cartProfile.StackedHeight,
				Liftgate:    cartProfile.RequiresLiftgate,
				Residential: residential,
				Hazmat:      cartProfile.HasHazmat,
			})
			return nil
		})
	}
	// Join both fetches, successes and failures alike, before merging.
	_ = g.Wait()

	if wantFreight && freightResult.Err != "" {
		warnings = append(warnings, freightResult.Err)
	}

	var collected []models.RateQuote
	if shipFrom.IsPickupLocation && cartProfile.PickupAvailable {
		collected = append(collected, pickupQuote(shipFrom))
	}
	collected = append(collected, parcelQuotes...)
	collected = append(collected, freightResult.Quotes...)

	merged := MergeQuotes(collected)

	// A freight cart with no priced methods still gets pickup offered when
	// the warehouse physically supports it.
	if len(merged) == 0 && wantFreight && shipFrom.IsPickupLocation {
		merged = []models.RateQuote{pickupQuote(shipFrom)}
	}

	var ltlSource *string
	var ltlMarkup float64
	if freightResult.Source != "" {
		source := freightResult.Source
		ltlSource = &source
		if source == models.FreightSourceAPI {
			ltlMarkup = o.freight.MarkupPercent()
		}
	}

	freeShippingNote := ""
	if req.Residential != nil && !*req.Residential {
		freeShippingNote = "Commercial delivery addresses may qualify for free shipping; eligibility is determined at checkout."
	}

	response := &models.QuoteResponse{
		Success: true,
		ShipFromWarehouse: models.WarehouseSummary{
			Name:  shipFrom.DisplayName,
			City:  shipFrom.City,
			State: shipFrom.State,
			Zip:   shipFrom.Zip,
		},
		ShippingMethods:     roundQuotes(merged),
		CartShippingProfile: roundProfile(cartProfile),
		FreeShippingNote:    freeShippingNote,
		LTLMarkup:           ltlMarkup,
		LTLRateSource:       ltlSource,
		Warnings:            warnings,
	}

	if o.publisher != nil {
		go o.publishQuoteCompleted(tenantID, response)
	}

	o.logger.WithFields(logrus.Fields{
		"tenant_id":    tenantID,
		"methods":      len(response.ShippingMethods),
		"requires_ltl": cartProfile.RequiresFreight,
		"warnings":     len(warnings),
	}).Info("Shipping quote completed")

	return response, nil
}

// validateRequest checks request shape. This is the only condition that
// aborts before producing a response.
func (o *RateOrchestrator) validateRequest(req models.QuoteRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("at least one cart item is required")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item quantity must be greater than 0")
		}
	}
	if !zipPattern.MatchString(req.DestinationZip) {
		return fmt.Errorf("destination_zip must be a 5-digit ZIP code")
	}
	return nil
}

// resolveItems loads product records (and variant parents) for the cart.
// Catalog failures degrade to placeholder products with no attributes, so
// defaults and fallback detection keep the quote moving.
func (o *RateOrchestrator) resolveItems(ctx context.Context, items []models.CartLineItem) ([]profile.ResolvedItem, []string) {
	var warnings []string

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, catalogErr := o.catalog.GetProductsByIDs(ctx, ids)
	if catalogErr != nil {
		o.logger.WithError(catalogErr).Error("Catalog lookup failed, using default shipping attributes")
		warnings = append(warnings, "product catalog is unavailable; shipping estimates use default item dimensions")
		products = nil
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	parentSKUs := make([]string, 0)
	for _, p := range products {
		if p.InheritFromParent && p.ParentSKU != nil && *p.ParentSKU != "" {
			parentSKUs = append(parentSKUs, *p.ParentSKU)
		}
	}

	parentsBySKU := make(map[string]models.Product)
	if len(parentSKUs) > 0 {
		parents, err := o.catalog.GetProductsBySKUs(ctx, parentSKUs)
		if err != nil {
			o.logger.WithError(err).Warn("Parent product lookup failed, variants use their own attributes")
			warnings = append(warnings, "parent product lookup failed; variant shipping attributes may be incomplete")
		}
		for _, p := range parents {
			parentsBySKU[p.SKU] = p
		}
	}

	resolved := make([]profile.ResolvedItem, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			if catalogErr == nil {
				warnings = append(warnings, fmt.Sprintf("product %s was not found; default shipping attributes applied", item.ProductID))
			}
			product = models.Product{ID: item.ProductID, SKU: item.ProductID.String(), Title: "Unknown product"}
		}

		var parent *models.Product
		if product.InheritFromParent && product.ParentSKU != nil {
			if p, ok := parentsBySKU[*product.ParentSKU]; ok {
				parent = &p
			}
		}

		resolved = append(resolved, profile.ResolvedItem{
			Product:  product,
			Parent:   parent,
			Quantity: item.Quantity,
		})
	}
	return resolved, warnings
}

func (o *RateOrchestrator) destinationAddress(req models.QuoteRequest) models.Address {
	return models.Address{
		Street:     req.DestinationAddress,
		City:       req.DestinationCity,
		State:      req.DestinationState,
		PostalCode: req.DestinationZip,
		Country:    "US",
	}
}

func (o *RateOrchestrator) publishQuoteCompleted(tenantID string, response *models.QuoteResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	source := ""
	if response.LTLRateSource != nil {
		source = *response.LTLRateSource
	}
	if err := o.publisher.PublishQuoteCompleted(ctx, tenantID, len(response.ShippingMethods), source, len(response.Warnings)); err != nil {
		o.logger.WithError(err).Warn("Failed to publish quote event")
	}
}

// filterParcelByEligibility drops quotes for carriers the cart is not
// eligible for. The parcel provider quotes both carriers in one call; the
// allow-list cannot know per-cart eligibility.
func filterParcelByEligibility(quotes []models.RateQuote, p models.ShippingProfile) []models.RateQuote {
	kept := make([]models.RateQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.Carrier == "UPS" && !p.UPSEligible {
			continue
		}
		if q.Carrier == "USPS" && !p.USPSEligible {
			continue
		}
		kept = append(kept, q)
	}
	return kept
}

// pickupQuote builds the zero-cost local pickup option.
func pickupQuote(wh models.Warehouse) models.RateQuote {
	transit := 0
	return models.RateQuote{
		Method:      models.MethodPickup,
		Carrier:     "Pickup",
		Service:     fmt.Sprintf("Free Local Pickup (%s)", wh.DisplayName),
		Rate:        0,
		TransitDays: &transit,
		Guaranteed:  false,
	}
}

// MergeQuotes merges collected quotes into one ranked list: deduped by
// (method, carrier, service) keeping the cheapest, sorted ascending by
// rate, with the pickup option pinned first regardless of position in the
// input. Deterministic: the same input always yields the same output.
func MergeQuotes(quotes []models.RateQuote) []models.RateQuote {
	type quoteKey struct {
		Method  string
		Carrier string
		Service string
	}

	best := make(map[quoteKey]models.RateQuote, len(quotes))
	order := make([]quoteKey, 0, len(quotes))
	for _, q := range quotes {
		key := quoteKey{Method: q.Method, Carrier: q.Carrier, Service: q.Service}
		existing, ok := best[key]
		if !ok {
			best[key] = q
			order = append(order, key)
			continue
		}
		if q.Rate < existing.Rate {
			best[key] = q
		}
	}

	merged := make([]models.RateQuote, 0, len(best))
	for _, key := range order {
		merged = append(merged, best[key])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if (merged[i].Method == models.MethodPickup) != (merged[j].Method == models.MethodPickup) {
			return merged[i].Method == models.MethodPickup
		}
		return merged[i].Rate < merged[j].Rate
	})
	return merged
}

// round2 rounds to two decimals at the presentation boundary only; internal
// accumulation stays unrounded.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func roundQuotes(quotes []models.RateQuote) []models.RateQuote {
	for i := range quotes {
		quotes[i].Rate = round2(quotes[i].Rate)
	}
	return quotes
}

func roundProfile(p models.ShippingProfile) models.ShippingProfile {
	p.TotalWeight = round2(p.TotalWeight)
	p.MaxLength = round2(p.MaxLength)
	p.MaxWidth = round2(p.MaxWidth)
	p.StackedHeight = round2(p.StackedHeight)
	return p
}
