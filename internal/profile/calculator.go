// Package profile computes the aggregate shipping profile of a cart from
// per-product shipping attributes, including variant inheritance and the
// fallback eligibility heuristic for carts with unpopulated carrier flags.
package profile

import (
	"github.com/sirupsen/logrus"

	"shipping-rates-service/internal/models"
)

// Thresholds are the tunable limits driving freight classification and
// fallback eligibility detection. Values are pounds and inches.
type Thresholds struct {
	FreightWeightLbs   float64
	FreightDimensionIn float64
	LiftgateWeightLbs  float64

	// Limits under which UPS eligibility may be auto-enabled when no product
	// in the cart carries carrier flags. USPS is never auto-enabled: its
	// size limits are too strict to guess safely.
	AutoDetectMaxWeightLbs   float64
	AutoDetectMaxDimensionIn float64

	// Hard defaults applied when neither variant nor parent has a value.
	DefaultWeightLbs float64
	DefaultLengthIn  float64
	DefaultWidthIn   float64
	DefaultHeightIn  float64
}

// DefaultThresholds returns the standard threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FreightWeightLbs:         150,
		FreightDimensionIn:       48,
		LiftgateWeightLbs:        100,
		AutoDetectMaxWeightLbs:   70,
		AutoDetectMaxDimensionIn: 48,
		DefaultWeightLbs:         1,
		DefaultLengthIn:          12,
		DefaultWidthIn:           12,
		DefaultHeightIn:          6,
	}
}

// ResolvedItem is a cart line item with its product record and, for
// variants inheriting shipping data, the resolved parent record.
type ResolvedItem struct {
	Product  models.Product
	Parent   *models.Product
	Quantity int
}

// Calculator builds a ShippingProfile from resolved cart items.
type Calculator struct {
	thresholds Thresholds
	logger     *logrus.Entry
}

// NewCalculator creates a profile calculator.
func NewCalculator(thresholds Thresholds, logger *logrus.Entry) *Calculator {
	return &Calculator{thresholds: thresholds, logger: logger}
}

// Compute aggregates the cart into a single shipping profile.
//
// Accumulation uses unrounded values throughout; rounding to two decimals
// happens only at the response boundary to avoid compounding error across
// many line items.
func (c *Calculator) Compute(items []ResolvedItem) models.ShippingProfile {
	t := c.thresholds
	p := models.ShippingProfile{
		EligibilitySource: models.EligibilityExplicit,
		UPSEligible:       true,
		USPSEligible:      true,
	}
	if len(items) == 0 {
		p.UPSEligible = false
		p.USPSEligible = false
		return p
	}

	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}

		weight := item.effectiveFloat(func(pr *models.Product) *float64 { return pr.WeightLbs }, t.DefaultWeightLbs)
		length := item.effectiveFloat(func(pr *models.Product) *float64 { return pr.LengthIn }, t.DefaultLengthIn)
		width := item.effectiveFloat(func(pr *models.Product) *float64 { return pr.WidthIn }, t.DefaultWidthIn)
		height := item.effectiveFloat(func(pr *models.Product) *float64 { return pr.HeightIn }, t.DefaultHeightIn)

		p.TotalWeight += weight * float64(qty)
		if length > p.MaxLength {
			p.MaxLength = length
		}
		if width > p.MaxWidth {
			p.MaxWidth = width
		}
		p.StackedHeight += height * float64(qty)
		p.TotalItemCount += qty

		ups := item.effectiveBool(func(pr *models.Product) *bool { return pr.ShipsUPS })
		usps := item.effectiveBool(func(pr *models.Product) *bool { return pr.ShipsUSPS })
		freight := item.effectiveBool(func(pr *models.Product) *bool { return pr.ShipsFreight })
		pickup := item.effectiveBool(func(pr *models.Product) *bool { return pr.ShipsPickup })

		// Parcel carriers use AND semantics: every item must allow the
		// carrier. Freight/pickup/hazmat/oversized use OR semantics: any
		// one item triggers the cart-level flag.
		if ups == nil || !*ups {
			p.UPSEligible = false
		}
		if usps == nil || !*usps {
			p.USPSEligible = false
		}
		if freight != nil && *freight {
			p.FreightEligible = true
		}
		if pickup != nil && *pickup {
			p.PickupAvailable = true
		}
		if item.Product.IsHazmat || (item.Parent != nil && item.Product.InheritFromParent && item.Parent.IsHazmat) {
			p.HasHazmat = true
		}
		if item.Product.IsOversized || (item.Parent != nil && item.Product.InheritFromParent && item.Parent.IsOversized) {
			p.HasOversized = true
		}

		if ups == nil && usps == nil && freight == nil && pickup == nil {
			p.ProductsWithoutFlags = append(p.ProductsWithoutFlags, models.ProductRef{
				SKU:   item.Product.SKU,
				Title: item.Product.Title,
			})
		}
	}

	// When every item lacks all carrier flags the data pipeline simply
	// hasn't been populated yet; auto-detect eligibility instead of
	// wrongly blocking checkout with "no carriers eligible".
	if len(p.ProductsWithoutFlags) == len(items) {
		c.autoDetectEligibility(&p)
	}

	p.RequiresFreight = p.TotalWeight > t.FreightWeightLbs ||
		p.MaxLength > t.FreightDimensionIn ||
		p.MaxWidth > t.FreightDimensionIn ||
		p.StackedHeight > t.FreightDimensionIn ||
		p.HasOversized
	p.RequiresLiftgate = p.HasOversized || p.TotalWeight > t.LiftgateWeightLbs

	return p
}

// autoDetectEligibility applies the fallback heuristic for carts where no
// product carries carrier flags. UPS is enabled only under conservative
// size/weight limits; USPS is never auto-enabled; pickup always is.
func (c *Calculator) autoDetectEligibility(p *models.ShippingProfile) {
	t := c.thresholds
	p.UPSEligible = p.TotalWeight <= t.AutoDetectMaxWeightLbs &&
		p.MaxLength <= t.AutoDetectMaxDimensionIn &&
		p.MaxWidth <= t.AutoDetectMaxDimensionIn &&
		p.StackedHeight <= t.AutoDetectMaxDimensionIn &&
		!p.HasHazmat
	p.USPSEligible = false
	p.PickupAvailable = true
	p.UsedFallbackDetection = true
	p.EligibilitySource = models.EligibilityInferred
	p.EligibilityReason = "no products in cart have carrier flags configured"

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"total_weight": p.TotalWeight,
			"ups_eligible": p.UPSEligible,
		}).Warn("Carrier eligibility auto-detected: no products have carrier flags")
	}
}

// effectiveFloat resolves an attribute as variant value, then parent value
// (only when the variant inherits from a parent), then the hard default.
func (i ResolvedItem) effectiveFloat(pick func(*models.Product) *float64, def float64) float64 {
	if v := pick(&i.Product); v != nil {
		return *v
	}
	if i.Product.InheritFromParent && i.Parent != nil {
		if v := pick(i.Parent); v != nil {
			return *v
		}
	}
	return def
}

// effectiveBool resolves a flag the same way but has no default: nil means
// the flag is genuinely unset, which fallback detection depends on.
func (i ResolvedItem) effectiveBool(pick func(*models.Product) *bool) *bool {
	if v := pick(&i.Product); v != nil {
		return v
	}
	if i.Product.InheritFromParent && i.Parent != nil {
		if v := pick(i.Parent); v != nil {
			return v
		}
	}
	return nil
}
