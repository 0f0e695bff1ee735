package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"shipping-rates-service/internal/models"
)

const (
	warehouseCacheKey = "rates:warehouses:active"
	warehouseCacheTTL = 5 * time.Minute
	stockCacheTTL     = 30 * time.Second
)

// CatalogRepository provides read-only access to catalog, warehouse and
// stock reference data. This service never writes catalog data.
type CatalogRepository interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	GetProductsBySKUs(ctx context.Context, skus []string) ([]models.Product, error)
	GetActiveWarehouses(ctx context.Context) ([]models.Warehouse, error)
	GetStockQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (int, error)
	HasAnyStock(ctx context.Context, productID uuid.UUID) (bool, error)
}

type catalogRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewCatalogRepository creates a catalog repository. The Redis client is
// optional; when nil, every read goes straight to the database.
func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) CatalogRepository {
	return &catalogRepository{db: db, redisClient: redisClient}
}

// GetProductsByIDs fetches products with shipping attributes by ID list.
func (r *catalogRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductsBySKUs fetches products by SKU list, used to resolve variant
// parents.
func (r *catalogRepository) GetProductsBySKUs(ctx context.Context, skus []string) ([]models.Product, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("sku IN ?", skus).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetActiveWarehouses fetches all active warehouses, cached briefly since
// warehouse records change rarely but are read on every quote.
func (r *catalogRepository) GetActiveWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	if r.redisClient != nil {
		if cached, err := r.redisClient.Get(ctx, warehouseCacheKey).Result(); err == nil {
			var warehouses []models.Warehouse
			if err := json.Unmarshal([]byte(cached), &warehouses); err == nil {
				return warehouses, nil
			}
		}
	}

	var warehouses []models.Warehouse
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("display_name ASC").
		Find(&warehouses).Error
	if err != nil {
		return nil, err
	}

	if r.redisClient != nil {
		if data, err := json.Marshal(warehouses); err == nil {
			// Cache failures are ignored; the next read hits the database.
			r.redisClient.Set(ctx, warehouseCacheKey, data, warehouseCacheTTL)
		}
	}
	return warehouses, nil
}

// GetStockQuantity returns the available quantity for a product at a
// warehouse. A missing stock row reads as zero here; drop-ship detection is
// HasAnyStock's job.
func (r *catalogRepository) GetStockQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (int, error) {
	cacheKey := fmt.Sprintf("rates:stock:%s:%s", productID, warehouseID)
	if r.redisClient != nil {
		if cached, err := r.redisClient.Get(ctx, cacheKey).Int(); err == nil {
			return cached, nil
		}
	}

	var level models.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&level).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}

	if r.redisClient != nil {
		r.redisClient.Set(ctx, cacheKey, level.QuantityAvailable, stockCacheTTL)
	}
	return level.QuantityAvailable, nil
}

// HasAnyStock reports whether a product has a stock record in any
// warehouse. Products with none are drop-ship/made-to-order.
func (r *catalogRepository) HasAnyStock(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
