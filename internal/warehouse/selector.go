// Package warehouse selects the fulfillment location for a cart: the
// geographically nearest warehouse that can cover every stock-tracked item,
// with a fallback chain that always resolves to at least the configured
// default warehouse. Selection failure must never block a shipping quote.
package warehouse

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"shipping-rates-service/internal/geo"
	"shipping-rates-service/internal/models"
)

// StockStore is the read-only warehouse/stock collaborator.
type StockStore interface {
	GetActiveWarehouses(ctx context.Context) ([]models.Warehouse, error)
	GetStockQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (int, error)
	HasAnyStock(ctx context.Context, productID uuid.UUID) (bool, error)
}

// Selector picks the ship-from warehouse for a cart.
type Selector struct {
	store            StockStore
	defaultWarehouse models.Warehouse
	maxLookups       int64
	logger           *logrus.Entry
}

// NewSelector creates a selector. The default warehouse is injected here
// rather than reached through package state; it is returned whenever no
// warehouse records are configured or selection fails internally.
func NewSelector(store StockStore, defaultWarehouse models.Warehouse, maxConcurrentLookups int64, logger *logrus.Entry) *Selector {
	if maxConcurrentLookups < 1 {
		maxConcurrentLookups = 8
	}
	return &Selector{
		store:            store,
		defaultWarehouse: defaultWarehouse,
		maxLookups:       maxConcurrentLookups,
		logger:           logger,
	}
}

// Select resolves the ship-from warehouse. It never returns an error: any
// internal failure falls back to the default warehouse.
func (s *Selector) Select(ctx context.Context, items []models.CartLineItem, destinationZip string) models.Warehouse {
	wh, err := s.selectWarehouse(ctx, items, destinationZip)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("Warehouse selection failed, using default warehouse")
		}
		return s.defaultWarehouse
	}
	return wh
}

func (s *Selector) selectWarehouse(ctx context.Context, items []models.CartLineItem, destinationZip string) (models.Warehouse, error) {
	warehouses, err := s.store.GetActiveWarehouses(ctx)
	if err != nil {
		return models.Warehouse{}, fmt.Errorf("failed to load warehouses: %w", err)
	}
	if len(warehouses) == 0 {
		return s.defaultWarehouse, nil
	}

	// Partition the cart: items with at least one stock record anywhere are
	// stock-tracked; items with none are drop-ship/made-to-order and impose
	// no constraint (not treated as zero stock).
	tracked, err := s.stockTrackedItems(ctx, items)
	if err != nil {
		return models.Warehouse{}, fmt.Errorf("failed to partition stock-tracked items: %w", err)
	}

	if len(tracked) == 0 {
		return nearestWarehouse(warehouses, destinationZip), nil
	}

	passing, err := s.warehousesSatisfyingStock(ctx, warehouses, tracked)
	if err != nil {
		return models.Warehouse{}, fmt.Errorf("stock check failed: %w", err)
	}

	if len(passing) > 0 {
		return nearestWarehouse(passing, destinationZip), nil
	}

	// No single warehouse covers every tracked item: quote from the nearest
	// anyway so backorder/partial-stock carts still get shipping options.
	if s.logger != nil {
		s.logger.WithField("tracked_items", len(tracked)).Info("No warehouse satisfies all stock-tracked items, using nearest by distance")
	}
	return nearestWarehouse(warehouses, destinationZip), nil
}

// stockTrackedItems returns the subset of items that have a stock record in
// at least one warehouse.
func (s *Selector) stockTrackedItems(ctx context.Context, items []models.CartLineItem) ([]models.CartLineItem, error) {
	tracked := make([]models.CartLineItem, 0, len(items))
	for _, item := range items {
		has, err := s.store.HasAnyStock(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if has {
			tracked = append(tracked, item)
		}
	}
	return tracked, nil
}

// warehousesSatisfyingStock returns the warehouses holding enough stock for
// every tracked item. Lookups fan out per (item, warehouse) under a bounded
// semaphore; ordering is irrelevant since only aggregate pass/fail per
// warehouse matters.
func (s *Selector) warehousesSatisfyingStock(ctx context.Context, warehouses []models.Warehouse, tracked []models.CartLineItem) ([]models.Warehouse, error) {
	sem := semaphore.NewWeighted(s.maxLookups)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	insufficient := make(map[uuid.UUID]bool, len(warehouses))

	for _, wh := range warehouses {
		for _, item := range tracked {
			wh, item := wh, item
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)

				qty, err := s.store.GetStockQuantity(gctx, item.ProductID, wh.ID)
				if err != nil {
					return err
				}
				if qty < item.Quantity {
					mu.Lock()
					insufficient[wh.ID] = true
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	passing := make([]models.Warehouse, 0, len(warehouses))
	for _, wh := range warehouses {
		if !insufficient[wh.ID] {
			passing = append(passing, wh)
		}
	}
	return passing, nil
}

// nearestWarehouse returns the candidate closest to the destination,
// preferring stored lat/lng and falling back to ZIP-prefix approximation.
// Unmappable locations rank at +Inf rather than failing.
func nearestWarehouse(candidates []models.Warehouse, destinationZip string) models.Warehouse {
	best := candidates[0]
	bestDist := math.Inf(1)

	dest, destOK := geo.CoordinateForZip(destinationZip)
	for _, wh := range candidates {
		dist := math.Inf(1)
		if destOK {
			if wh.Lat != nil && wh.Lng != nil {
				dist = geo.DistanceMiles(geo.Coordinate{Lat: *wh.Lat, Lng: *wh.Lng}, dest)
			} else if coord, ok := geo.CoordinateForZip(wh.Zip); ok {
				dist = geo.DistanceMiles(coord, dest)
			}
		}
		if dist < bestDist {
			best = wh
			bestDist = dist
		}
	}
	return best
}
