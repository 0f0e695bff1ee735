package repository

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shipping-rates-service/internal/models"
)

// SeedDemoWarehouses seeds a small set of demo warehouses for local
// development and testing. Idempotent: upserts on warehouse code.
func SeedDemoWarehouses(db *gorm.DB) error {
	warehouses := []models.Warehouse{
		{
			Code:             "mpls-main",
			DisplayName:      "Minneapolis Distribution Center",
			Street:           "3401 Industrial Blvd NE",
			City:             "Minneapolis",
			State:            "MN",
			Zip:              "55418",
			Country:          "US",
			Lat:              floatPtr(45.0145),
			Lng:              floatPtr(-93.2471),
			IsPickupLocation: true,
			IsActive:         true,
		},
		{
			Code:             "dallas-south",
			DisplayName:      "Dallas Warehouse",
			Street:           "9800 Harry Hines Blvd",
			City:             "Dallas",
			State:            "TX",
			Zip:              "75220",
			Country:          "US",
			Lat:              floatPtr(32.8746),
			Lng:              floatPtr(-96.8862),
			IsPickupLocation: false,
			IsActive:         true,
		},
		{
			Code:             "reno-west",
			DisplayName:      "Reno Fulfillment Center",
			Street:           "1240 Glendale Ave",
			City:             "Sparks",
			State:            "NV",
			Zip:              "89431",
			Country:          "US",
			Lat:              floatPtr(39.5349),
			Lng:              floatPtr(-119.7233),
			IsPickupLocation: false,
			IsActive:         true,
		},
	}

	for _, wh := range warehouses {
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "street", "city", "state", "zip", "country",
				"lat", "lng", "is_pickup_location", "is_active",
			}),
		}).Create(&wh).Error
		if err != nil {
			return err
		}
	}

	log.Printf("Seeded %d demo warehouses", len(warehouses))
	return nil
}

func floatPtr(f float64) *float64 {
	return &f
}
