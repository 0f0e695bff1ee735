package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shipping-rates-service/internal/config"
	"shipping-rates-service/internal/events"
	"shipping-rates-service/internal/handlers"
	"shipping-rates-service/internal/middleware"
	"shipping-rates-service/internal/models"
	"shipping-rates-service/internal/profile"
	"shipping-rates-service/internal/rates"
	"shipping-rates-service/internal/repository"
	"shipping-rates-service/internal/services"
	"shipping-rates-service/internal/warehouse"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	_ = godotenv.Load()

	log.Println("Starting Shipping Rates Service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded successfully")

	// Connect to database
	db, err := connectDatabase(cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connected successfully")

	// Run migrations
	if err := runMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Seed demo warehouses for local development
	if cfg.SeedDemoData {
		if err := repository.SeedDemoWarehouses(db); err != nil {
			log.Printf("Warning: Failed to seed demo warehouses: %v", err)
		}
	}

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to parse Redis URL: %v", err)
			log.Println("Continuing without Redis caching...")
		} else {
			redisClient = redis.NewClient(opt)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Failed to connect to Redis: %v", err)
				log.Println("Continuing without Redis caching...")
				redisClient = nil
			} else {
				log.Println("✓ Connected to Redis for caching")
			}
		}
	} else {
		log.Println("REDIS_URL not configured, caching disabled")
	}

	// Structured logger for the quoting pipeline
	appLogger := logrus.New()
	appLogger.SetFormatter(&logrus.JSONFormatter{})
	appLogger.SetLevel(logrus.InfoLevel)

	// Initialize NATS events publisher (optional)
	var publisher services.QuoteEventPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewPublisher(cfg.NATSURL, appLogger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		} else {
			publisher = natsPublisher
			defer natsPublisher.Close()
			log.Println("✓ NATS events publisher initialized")
		}
	} else {
		log.Println("NATS_URL not configured, quote events disabled")
	}

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db, redisClient)
	log.Println("Repositories initialized")

	// Initialize the quoting pipeline
	thresholds := profile.DefaultThresholds()
	thresholds.FreightWeightLbs = cfg.Rates.FreightWeightThresholdLbs
	thresholds.FreightDimensionIn = cfg.Rates.FreightDimensionThresholdIn
	thresholds.LiftgateWeightLbs = cfg.Rates.LiftgateWeightThresholdLbs

	calculator := profile.NewCalculator(thresholds, appLogger.WithField("component", "profile"))
	selector := warehouse.NewSelector(
		catalogRepo,
		cfg.DefaultWarehouse.Model(),
		int64(cfg.Rates.StockLookupConcurrency),
		appLogger.WithField("component", "warehouse"),
	)

	parcelClient := rates.NewParcelClient(cfg.Parcel, appLogger.WithField("component", "parcel"))
	if !parcelClient.HasCredentials() {
		log.Println("Parcel rate API not configured, parcel quoting disabled")
	}

	freightClient := rates.NewFreightClient(cfg.Freight, appLogger.WithField("component", "freight"))
	if !freightClient.HasCredentials() {
		log.Println("Freight rate API not configured, using fallback rate table")
	}
	freightService := rates.NewFreightService(
		freightClient,
		rates.NewFallbackTable(),
		cfg.Rates.LTLMarkupPercent,
		appLogger.WithField("component", "freight"),
	)

	orchestrator := services.NewRateOrchestrator(
		catalogRepo,
		calculator,
		selector,
		parcelClient,
		freightService,
		publisher,
		time.Duration(cfg.Rates.ClientTimeoutSeconds)*time.Second,
		appLogger.WithField("component", "orchestrator"),
	)
	log.Println("Rate orchestrator initialized")

	// Initialize handlers
	ratesHandler := handlers.NewRatesHandler(orchestrator, catalogRepo)
	log.Println("Handlers initialized")

	// Setup router
	router := setupRouter(ratesHandler, cfg)
	log.Printf("Router configured")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Starting server on %s (environment: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// connectDatabase establishes a connection to the PostgreSQL database
func connectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.Warehouse{},
		&models.StockLevel{},
	)
}

// setupRouter configures the Gin router with routes and middleware
func setupRouter(ratesHandler *handlers.RatesHandler, cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORS())
	router.Use(middleware.TenantMiddleware())
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", ratesHandler.HealthCheck)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/rates/quote", ratesHandler.GetQuote)
		api.GET("/warehouses", ratesHandler.ListWarehouses)
	}

	return router
}
