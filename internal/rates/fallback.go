package rates

import (
	"fmt"
	"strings"

	"shipping-rates-service/internal/models"
)

// FallbackTable is the static zone-based LTL rate table used when live
// freight quoting is unavailable or not configured. Rates are keyed by
// destination-state zone and weight bracket.
type FallbackTable struct {
	maxWeightLbs float64
}

// NewFallbackTable creates the static freight fallback table.
func NewFallbackTable() *FallbackTable {
	return &FallbackTable{maxWeightLbs: fallbackMaxWeightLbs}
}

const fallbackMaxWeightLbs = 5000

// stateZones classifies contiguous US states into pricing zones radiating
// out from the midwest origin region. Non-contiguous states and territories
// are intentionally absent: they surface an explicit error, never a silent
// drop.
var stateZones = map[string]int{
	// Zone 1: upper midwest
	"MN": 1, "WI": 1, "IA": 1, "IL": 1, "ND": 1, "SD": 1,
	// Zone 2: midwest / plains
	"MI": 2, "IN": 2, "OH": 2, "MO": 2, "NE": 2, "KS": 2, "KY": 2,
	// Zone 3: south / mountain near
	"TN": 3, "AR": 3, "OK": 3, "TX": 3, "CO": 3, "WY": 3, "MT": 3,
	"WV": 3, "VA": 3, "NC": 3, "PA": 3, "NY": 3, "MD": 3, "DE": 3, "NJ": 3, "DC": 3,
	// Zone 4: south / northeast far
	"GA": 4, "AL": 4, "MS": 4, "LA": 4, "SC": 4, "NM": 4, "UT": 4, "ID": 4,
	"CT": 4, "RI": 4, "MA": 4, "VT": 4, "NH": 4, "ME": 4,
	// Zone 5: west coast / far corners
	"WA": 5, "OR": 5, "CA": 5, "NV": 5, "AZ": 5, "FL": 5,
}

// fallbackBrackets holds per-zone base rates by maximum bracket weight.
// Brackets are evaluated in order; the first bracket whose MaxLbs is >= the
// shipment weight applies.
var fallbackBrackets = []struct {
	MaxLbs float64
	Rates  [5]float64 // index = zone-1
}{
	{500, [5]float64{185, 215, 260, 310, 375}},
	{1000, [5]float64{240, 280, 340, 410, 495}},
	{2000, [5]float64{320, 375, 455, 550, 660}},
	{3500, [5]float64{425, 500, 605, 730, 880}},
	{fallbackMaxWeightLbs, [5]float64{540, 635, 770, 930, 1120}},
}

// zoneTransitDays is the estimated transit time per zone.
var zoneTransitDays = [5]int{2, 3, 4, 5, 6}

// Flat accessorial adders for the fallback estimate.
const (
	liftgateAccessorialCharge    = 75
	residentialAccessorialCharge = 95
)

// Lookup resolves a single synthesized fallback quote for the destination
// state and shipment weight. Unsupported destinations and weights over the
// table ceiling return an error directing the customer to request a manual
// quote.
func (t *FallbackTable) Lookup(state string, weightLbs float64, liftgate, residential bool) (models.RateQuote, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return models.RateQuote{}, fmt.Errorf("freight estimate unavailable: destination state is required; please contact support for a manual freight quote")
	}

	zone, ok := stateZones[state]
	if !ok {
		return models.RateQuote{}, fmt.Errorf("freight shipping to %s is not available through automatic quoting; please contact support for a manual freight quote", state)
	}

	if weightLbs > t.maxWeightLbs {
		return models.RateQuote{}, fmt.Errorf("shipment weight %.0f lbs exceeds the %.0f lb automatic freight limit; please contact support for a manual freight quote", weightLbs, t.maxWeightLbs)
	}

	var rate float64
	for _, bracket := range fallbackBrackets {
		if weightLbs <= bracket.MaxLbs {
			rate = bracket.Rates[zone-1]
			break
		}
	}

	if liftgate {
		rate += liftgateAccessorialCharge
	}
	if residential {
		rate += residentialAccessorialCharge
	}

	transit := zoneTransitDays[zone-1]
	return models.RateQuote{
		Method:      models.MethodFreightFallback,
		Carrier:     "LTL Freight",
		Service:     "Standard LTL (estimated)",
		Rate:        rate,
		TransitDays: &transit,
		Guaranteed:  false,
	}, nil
}
