package config

import (
	"fmt"
	"os"
	"strconv"

	"shipping-rates-service/internal/models"
	"shipping-rates-service/internal/rates"
)

// Config holds all configuration for the shipping rates service
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	RedisURL         string
	NATSURL          string
	Parcel           rates.ParcelConfig
	Freight          rates.FreightConfig
	Rates            RatesConfig
	DefaultWarehouse WarehouseConfig
	SeedDemoData     bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RatesConfig holds the quoting policy knobs. Thresholds and markup are
// configurable per deployment rather than hard-coded.
type RatesConfig struct {
	LTLMarkupPercent            float64
	FreightWeightThresholdLbs   float64
	FreightDimensionThresholdIn float64
	LiftgateWeightThresholdLbs  float64
	ClientTimeoutSeconds        int
	StockLookupConcurrency      int
}

// WarehouseConfig is the built-in default warehouse, used whenever no
// warehouse records are configured or selection fails.
type WarehouseConfig struct {
	Code             string
	Name             string
	Street           string
	City             string
	State            string
	Zip              string
	Lat              float64
	Lng              float64
	IsPickupLocation bool
}

// Model converts the configured default warehouse into a warehouse record.
func (w WarehouseConfig) Model() models.Warehouse {
	lat, lng := w.Lat, w.Lng
	return models.Warehouse{
		Code:             w.Code,
		DisplayName:      w.Name,
		Street:           w.Street,
		City:             w.City,
		State:            w.State,
		Zip:              w.Zip,
		Country:          "US",
		Lat:              &lat,
		Lng:              &lng,
		IsPickupLocation: w.IsPickupLocation,
		IsActive:         true,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8089"),
			Env:  getEnv("NODE_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "shipping_rates"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),
		// Rate provider env vars are optional; absent credentials degrade to
		// warnings and the freight fallback table.
		Parcel: rates.ParcelConfig{
			APIKey:  getEnv("PARCEL_API_KEY", ""),
			BaseURL: getEnv("PARCEL_BASE_URL", "https://api.shipengine.com"),
		},
		Freight: rates.FreightConfig{
			APIKey:    getEnv("FREIGHT_API_KEY", ""),
			APISecret: getEnv("FREIGHT_API_SECRET", ""),
			BaseURL:   getEnv("FREIGHT_BASE_URL", ""),
		},
		Rates: RatesConfig{
			LTLMarkupPercent:            getEnvAsFloat("LTL_MARKUP_PERCENT", 25),
			FreightWeightThresholdLbs:   getEnvAsFloat("FREIGHT_WEIGHT_THRESHOLD_LBS", 150),
			FreightDimensionThresholdIn: getEnvAsFloat("FREIGHT_DIMENSION_THRESHOLD_IN", 48),
			LiftgateWeightThresholdLbs:  getEnvAsFloat("LIFTGATE_WEIGHT_THRESHOLD_LBS", 100),
			ClientTimeoutSeconds:        getEnvAsInt("RATE_CLIENT_TIMEOUT_SECONDS", 10),
			StockLookupConcurrency:      getEnvAsInt("STOCK_LOOKUP_CONCURRENCY", 8),
		},
		DefaultWarehouse: WarehouseConfig{
			Code:             getEnv("DEFAULT_WAREHOUSE_CODE", "mpls-main"),
			Name:             getEnv("DEFAULT_WAREHOUSE_NAME", "Minneapolis Distribution Center"),
			Street:           getEnv("DEFAULT_WAREHOUSE_STREET", "3401 Industrial Blvd NE"),
			City:             getEnv("DEFAULT_WAREHOUSE_CITY", "Minneapolis"),
			State:            getEnv("DEFAULT_WAREHOUSE_STATE", "MN"),
			Zip:              getEnv("DEFAULT_WAREHOUSE_ZIP", "55418"),
			Lat:              getEnvAsFloat("DEFAULT_WAREHOUSE_LAT", 45.0145),
			Lng:              getEnvAsFloat("DEFAULT_WAREHOUSE_LNG", -93.2471),
			IsPickupLocation: getEnvBool("DEFAULT_WAREHOUSE_PICKUP", true),
		},
		SeedDemoData: getEnvBool("SEED_DEMO_DATA", false),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Rates.LTLMarkupPercent < 0 {
		return fmt.Errorf("LTL_MARKUP_PERCENT must not be negative")
	}
	if c.Rates.FreightWeightThresholdLbs <= 0 {
		return fmt.Errorf("FREIGHT_WEIGHT_THRESHOLD_LBS must be positive")
	}
	if c.Rates.FreightDimensionThresholdIn <= 0 {
		return fmt.Errorf("FREIGHT_DIMENSION_THRESHOLD_IN must be positive")
	}
	if c.DefaultWarehouse.Zip == "" {
		return fmt.Errorf("DEFAULT_WAREHOUSE_ZIP is required")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets a float environment variable or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
