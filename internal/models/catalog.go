package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product with its shipping attributes.
// The rates service only reads products; the catalog service owns them.
//
// All physical attributes and carrier flags are nullable on purpose: an
// unset value means "not populated yet", which is different from zero/false
// and drives both variant inheritance and fallback eligibility detection.
type Product struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);index"`
	SKU      string    `json:"sku" gorm:"type:varchar(100);not null;index"`
	Title    string    `json:"title" gorm:"type:varchar(500)"`

	// Variant linkage
	ParentSKU         *string `json:"parentSku" gorm:"type:varchar(100);index"`
	InheritFromParent bool    `json:"inheritFromParent" gorm:"default:false"`

	// Physical attributes (pounds / inches)
	WeightLbs *float64 `json:"weightLbs" gorm:"type:decimal(10,4)"`
	LengthIn  *float64 `json:"lengthIn" gorm:"type:decimal(10,4)"`
	WidthIn   *float64 `json:"widthIn" gorm:"type:decimal(10,4)"`
	HeightIn  *float64 `json:"heightIn" gorm:"type:decimal(10,4)"`

	// Carrier/pickup eligibility flags
	ShipsUPS     *bool `json:"shipsUps" gorm:"column:ships_ups"`
	ShipsUSPS    *bool `json:"shipsUsps" gorm:"column:ships_usps"`
	ShipsFreight *bool `json:"shipsFreight"`
	ShipsPickup  *bool `json:"shipsPickup"`

	IsHazmat    bool   `json:"isHazmat" gorm:"default:false"`
	HazmatClass string `json:"hazmatClass" gorm:"type:varchar(50)"`
	IsOversized bool   `json:"isOversized" gorm:"default:false"`

	IsActive  bool      `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Warehouse represents a fulfillment location.
type Warehouse struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Code             string    `json:"code" gorm:"type:varchar(50);uniqueIndex"`
	DisplayName      string    `json:"displayName" gorm:"type:varchar(255);not null"`
	Street           string    `json:"street" gorm:"type:varchar(500)"`
	City             string    `json:"city" gorm:"type:varchar(100)"`
	State            string    `json:"state" gorm:"type:varchar(100)"`
	Zip              string    `json:"zip" gorm:"type:varchar(20)"`
	Country          string    `json:"country" gorm:"type:varchar(10);default:'US'"`
	Lat              *float64  `json:"lat" gorm:"type:decimal(10,6)"`
	Lng              *float64  `json:"lng" gorm:"type:decimal(10,6)"`
	IsPickupLocation bool      `json:"isPickupLocation" gorm:"default:false"`
	IsActive         bool      `json:"isActive" gorm:"default:true"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// StockLevel is the available quantity of a product at a warehouse.
// A product with no StockLevel row in any warehouse is drop-ship /
// made-to-order and imposes no stock constraint on warehouse selection.
type StockLevel struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID         uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_stock_product_warehouse,unique"`
	WarehouseID       uuid.UUID `json:"warehouseId" gorm:"type:uuid;not null;index:idx_stock_product_warehouse,unique"`
	QuantityAvailable int       `json:"quantityAvailable" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Address represents a shipping address used in rate requests.
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"` // ISO 2-letter code
}

// Address returns the warehouse's location as a rate-request address.
func (w Warehouse) Address() Address {
	return Address{
		Name:       w.DisplayName,
		Street:     w.Street,
		City:       w.City,
		State:      w.State,
		PostalCode: w.Zip,
		Country:    w.Country,
	}
}
