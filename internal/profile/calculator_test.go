package profile

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"shipping-rates-service/internal/models"
)

func testCalculator() *Calculator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewCalculator(DefaultThresholds(), logrus.NewEntry(logger))
}

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func TestComputeAggregation(t *testing.T) {
	calc := testCalculator()

	items := []ResolvedItem{
		{
			Product: models.Product{
				SKU:       "box-a",
				WeightLbs: floatPtr(5),
				LengthIn:  floatPtr(20),
				WidthIn:   floatPtr(10),
				HeightIn:  floatPtr(4),
				ShipsUPS:  boolPtr(true),
				ShipsUSPS: boolPtr(true),
			},
			Quantity: 2,
		},
		{
			Product: models.Product{
				SKU:       "box-b",
				WeightLbs: floatPtr(3),
				LengthIn:  floatPtr(15),
				WidthIn:   floatPtr(12),
				HeightIn:  floatPtr(6),
				ShipsUPS:  boolPtr(true),
				ShipsUSPS: boolPtr(true),
			},
			Quantity: 1,
		},
	}

	p := calc.Compute(items)

	// Weights and heights accumulate per unit; lengths and widths take the
	// max across units.
	assert.Equal(t, 13.0, p.TotalWeight)
	assert.Equal(t, 20.0, p.MaxLength)
	assert.Equal(t, 12.0, p.MaxWidth)
	assert.Equal(t, 14.0, p.StackedHeight)
	assert.Equal(t, 3, p.TotalItemCount)
	assert.False(t, p.RequiresFreight)
	assert.True(t, p.UPSEligible)
	assert.True(t, p.USPSEligible)
	assert.False(t, p.UsedFallbackDetection)
	assert.Equal(t, models.EligibilityExplicit, p.EligibilitySource)
}

func TestComputeVariantInheritance(t *testing.T) {
	calc := testCalculator()

	parent := models.Product{
		SKU:       "parent-sku",
		WeightLbs: floatPtr(40),
		LengthIn:  floatPtr(30),
		WidthIn:   floatPtr(18),
		HeightIn:  floatPtr(10),
		ShipsUPS:  boolPtr(true),
		ShipsUSPS: boolPtr(false),
	}

	variant := models.Product{
		SKU:               "variant-sku",
		ParentSKU:         &parent.SKU,
		InheritFromParent: true,
	}

	fromVariant := calc.Compute([]ResolvedItem{{Product: variant, Parent: &parent, Quantity: 1}})
	fromParent := calc.Compute([]ResolvedItem{{Product: parent, Quantity: 1}})

	// A variant with no attributes of its own must produce the same profile
	// as computing directly from the parent.
	assert.Equal(t, fromParent, fromVariant)

	// Attribute-by-attribute resolution still prefers the variant's own
	// non-nil value over the parent's.
	variant.WeightLbs = floatPtr(45)
	p := calc.Compute([]ResolvedItem{{Product: variant, Parent: &parent, Quantity: 1}})
	assert.Equal(t, 45.0, p.TotalWeight)
	assert.Equal(t, 30.0, p.MaxLength)
}

func TestComputeInheritanceRequiresFlag(t *testing.T) {
	calc := testCalculator()

	parent := models.Product{SKU: "parent", WeightLbs: floatPtr(40)}
	variant := models.Product{SKU: "variant", ParentSKU: &parent.SKU, InheritFromParent: false}

	// Without inheritFromParent the parent is ignored and defaults apply.
	p := calc.Compute([]ResolvedItem{{Product: variant, Parent: &parent, Quantity: 1}})
	assert.Equal(t, 1.0, p.TotalWeight)
}

func TestParcelEligibilityANDSemantics(t *testing.T) {
	calc := testCalculator()

	eligible := models.Product{SKU: "a", ShipsUPS: boolPtr(true), ShipsUSPS: boolPtr(true)}
	upsOnly := models.Product{SKU: "b", ShipsUPS: boolPtr(true), ShipsUSPS: boolPtr(false)}

	p := calc.Compute([]ResolvedItem{
		{Product: eligible, Quantity: 1},
		{Product: upsOnly, Quantity: 1},
	})

	// Every item must allow a parcel carrier for the cart to be eligible.
	assert.True(t, p.UPSEligible)
	assert.False(t, p.USPSEligible)
}

func TestFreightPickupORSemantics(t *testing.T) {
	calc := testCalculator()

	plain := models.Product{SKU: "a", ShipsUPS: boolPtr(true)}
	freight := models.Product{SKU: "b", ShipsFreight: boolPtr(true), IsHazmat: true, IsOversized: true}
	pickup := models.Product{SKU: "c", ShipsPickup: boolPtr(true)}

	p := calc.Compute([]ResolvedItem{
		{Product: plain, Quantity: 1},
		{Product: freight, Quantity: 1},
		{Product: pickup, Quantity: 1},
	})

	// Any one item triggers the cart-level flag.
	assert.True(t, p.FreightEligible)
	assert.True(t, p.PickupAvailable)
	assert.True(t, p.HasHazmat)
	assert.True(t, p.HasOversized)
}

func TestFallbackDetectionTrigger(t *testing.T) {
	calc := testCalculator()

	bare := func(sku string, weight float64) ResolvedItem {
		return ResolvedItem{
			Product:  models.Product{SKU: sku, Title: sku, WeightLbs: floatPtr(weight)},
			Quantity: 1,
		}
	}

	// Zero items with carrier flags: auto-detect kicks in.
	p := calc.Compute([]ResolvedItem{bare("a", 10), bare("b", 20)})
	assert.True(t, p.UsedFallbackDetection)
	assert.Equal(t, models.EligibilityInferred, p.EligibilitySource)
	assert.True(t, p.UPSEligible)
	assert.False(t, p.USPSEligible, "USPS is never auto-enabled")
	assert.True(t, p.PickupAvailable)
	assert.Len(t, p.ProductsWithoutFlags, 2)

	// At least one item with a flag: trust the flags, even if other items
	// have none.
	flagged := ResolvedItem{
		Product:  models.Product{SKU: "c", ShipsUPS: boolPtr(true)},
		Quantity: 1,
	}
	p = calc.Compute([]ResolvedItem{bare("a", 10), flagged})
	assert.False(t, p.UsedFallbackDetection)
	assert.Equal(t, models.EligibilityExplicit, p.EligibilitySource)
	assert.Len(t, p.ProductsWithoutFlags, 1)
}

func TestFallbackDetectionRespectsLimits(t *testing.T) {
	calc := testCalculator()

	heavy := ResolvedItem{
		Product:  models.Product{SKU: "heavy", WeightLbs: floatPtr(80)},
		Quantity: 1,
	}
	p := calc.Compute([]ResolvedItem{heavy})
	assert.True(t, p.UsedFallbackDetection)
	assert.False(t, p.UPSEligible, "over 70 lb must not auto-enable UPS")

	hazmat := ResolvedItem{
		Product:  models.Product{SKU: "haz", WeightLbs: floatPtr(5), IsHazmat: true},
		Quantity: 1,
	}
	p = calc.Compute([]ResolvedItem{hazmat})
	assert.False(t, p.UPSEligible, "hazmat must not auto-enable UPS")
}

func TestFreightThresholdBoundaries(t *testing.T) {
	calc := testCalculator()

	item := func(weight, length float64) []ResolvedItem {
		return []ResolvedItem{{
			Product: models.Product{
				SKU:       "x",
				WeightLbs: floatPtr(weight),
				LengthIn:  floatPtr(length),
				ShipsUPS:  boolPtr(true),
			},
			Quantity: 1,
		}}
	}

	assert.False(t, calc.Compute(item(150, 10)).RequiresFreight, "exactly 150 lb stays parcel")
	assert.True(t, calc.Compute(item(150.01, 10)).RequiresFreight)

	assert.False(t, calc.Compute(item(10, 48)).RequiresFreight, "exactly 48 in stays parcel")
	assert.True(t, calc.Compute(item(10, 48.01)).RequiresFreight)
}

func TestLiftgateAndOversized(t *testing.T) {
	calc := testCalculator()

	heavy := []ResolvedItem{{
		Product:  models.Product{SKU: "x", WeightLbs: floatPtr(101), ShipsFreight: boolPtr(true)},
		Quantity: 1,
	}}
	p := calc.Compute(heavy)
	assert.True(t, p.RequiresLiftgate)
	assert.False(t, p.RequiresFreight)

	oversized := []ResolvedItem{{
		Product:  models.Product{SKU: "y", WeightLbs: floatPtr(20), IsOversized: true, ShipsFreight: boolPtr(true)},
		Quantity: 1,
	}}
	p = calc.Compute(oversized)
	assert.True(t, p.RequiresFreight, "oversized forces freight regardless of weight")
	assert.True(t, p.RequiresLiftgate)
}

func TestComputeEmptyCart(t *testing.T) {
	calc := testCalculator()

	p := calc.Compute(nil)
	assert.False(t, p.UPSEligible)
	assert.False(t, p.USPSEligible)
	assert.False(t, p.RequiresFreight)
	assert.Zero(t, p.TotalItemCount)
}
