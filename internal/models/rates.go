package models

import (
	"time"

	"github.com/google/uuid"
)

// Shipping method identifiers used on normalized quotes
const (
	MethodPickup          = "pickup"
	MethodParcel          = "parcel"
	MethodFreight         = "freight"
	MethodFreightFallback = "freight_fallback"
)

// Freight rate sources reported on the quote response
const (
	FreightSourceAPI      = "api"
	FreightSourceFallback = "fallback"
)

// EligibilitySource tags how carrier eligibility was determined: read from
// explicit product flags, or inferred because no product in the cart had any
// flag populated. Downstream code must not treat inferred eligibility as
// authoritative without checking this tag.
type EligibilitySource string

const (
	EligibilityExplicit EligibilitySource = "explicit"
	EligibilityInferred EligibilitySource = "inferred"
)

// CartLineItem is one requested product/quantity pair. Ephemeral, supplied
// per request.
type CartLineItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// QuoteRequest is the inbound shipping-quote request body.
type QuoteRequest struct {
	Items              []CartLineItem `json:"items" binding:"required,min=1,dive"`
	DestinationZip     string         `json:"destination_zip" binding:"required"`
	DestinationCity    string         `json:"destination_city"`
	DestinationState   string         `json:"destination_state"`
	DestinationAddress string         `json:"destination_address"`
	Residential        *bool          `json:"residential"`
}

// RateQuote is the normalized shape of a priced shipping option, regardless
// of which provider produced it. Provider-specific field names never leak
// past the adapter that built the quote.
type RateQuote struct {
	Method       string     `json:"method"`
	Carrier      string     `json:"carrier"`
	Service      string     `json:"service"`
	Rate         float64    `json:"rate"`
	TransitDays  *int       `json:"transit_days"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Guaranteed   bool       `json:"guaranteed"`
}

// ProductRef identifies a product in observability output.
type ProductRef struct {
	SKU   string `json:"sku"`
	Title string `json:"title"`
}

// ShippingProfile is the aggregate physical/eligibility profile of a cart.
// Heights stack across units while lengths/widths take the max, reflecting
// how pallets are built.
type ShippingProfile struct {
	TotalWeight    float64 `json:"total_weight"`
	MaxLength      float64 `json:"max_length"`
	MaxWidth       float64 `json:"max_width"`
	StackedHeight  float64 `json:"stacked_height"`
	TotalItemCount int     `json:"total_item_count"`

	RequiresFreight  bool `json:"requires_ltl"`
	RequiresLiftgate bool `json:"requires_liftgate"`
	HasHazmat        bool `json:"has_hazmat"`
	HasOversized     bool `json:"has_oversized"`

	PickupAvailable bool `json:"pickup_available"`
	FreightEligible bool `json:"freight_eligible"`
	UPSEligible     bool `json:"ups_eligible"`
	USPSEligible    bool `json:"usps_eligible"`

	EligibilitySource     EligibilitySource `json:"eligibility_source"`
	EligibilityReason     string            `json:"eligibility_reason,omitempty"`
	UsedFallbackDetection bool              `json:"used_fallback_detection"`
	ProductsWithoutFlags  []ProductRef      `json:"products_without_flags,omitempty"`
}

// WarehouseSummary is the ship-from location as exposed to the caller.
type WarehouseSummary struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// QuoteResponse is the orchestrator's output. It is always best-effort:
// partial upstream failures surface as warnings, not errors.
type QuoteResponse struct {
	Success             bool             `json:"success"`
	ShipFromWarehouse   WarehouseSummary `json:"ship_from_warehouse"`
	ShippingMethods     []RateQuote      `json:"shipping_methods"`
	CartShippingProfile ShippingProfile  `json:"cart_shipping_profile"`
	FreeShippingNote    string           `json:"free_shipping_note,omitempty"`
	LTLMarkup           float64          `json:"ltl_markup"`
	LTLRateSource       *string          `json:"ltl_rate_source"`
	Warnings            []string         `json:"warnings,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}
