package warehouse

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shipping-rates-service/internal/models"
)

type mockStockStore struct {
	mock.Mock
}

func (m *mockStockStore) GetActiveWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Warehouse), args.Error(1)
}

func (m *mockStockStore) GetStockQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID, warehouseID)
	return args.Int(0), args.Error(1)
}

func (m *mockStockStore) HasAnyStock(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func floatPtr(f float64) *float64 { return &f }

var defaultWh = models.Warehouse{
	ID:          uuid.New(),
	Code:        "default",
	DisplayName: "Default Warehouse",
	City:        "Minneapolis",
	State:       "MN",
	Zip:         "55418",
}

// Minneapolis and Dallas candidates; for a Boston destination Minneapolis
// is the nearer of the two.
func testWarehouses() (models.Warehouse, models.Warehouse) {
	mpls := models.Warehouse{
		ID:          uuid.New(),
		Code:        "mpls",
		DisplayName: "Minneapolis",
		State:       "MN",
		Zip:         "55418",
		Lat:         floatPtr(45.0145),
		Lng:         floatPtr(-93.2471),
		IsActive:    true,
	}
	dallas := models.Warehouse{
		ID:          uuid.New(),
		Code:        "dallas",
		DisplayName: "Dallas",
		State:       "TX",
		Zip:         "75220",
		Lat:         floatPtr(32.8746),
		Lng:         floatPtr(-96.8862),
		IsActive:    true,
	}
	return mpls, dallas
}

func TestSelectNoWarehousesReturnsDefault(t *testing.T) {
	store := new(mockStockStore)
	store.On("GetActiveWarehouses", mock.Anything).Return([]models.Warehouse{}, nil)

	selector := NewSelector(store, defaultWh, 4, testLogger())
	wh := selector.Select(context.Background(), []models.CartLineItem{{ProductID: uuid.New(), Quantity: 1}}, "02144")

	assert.Equal(t, defaultWh.Code, wh.Code)
}

func TestSelectStoreErrorReturnsDefault(t *testing.T) {
	store := new(mockStockStore)
	store.On("GetActiveWarehouses", mock.Anything).Return(nil, errors.New("db down"))

	selector := NewSelector(store, defaultWh, 4, testLogger())
	wh := selector.Select(context.Background(), []models.CartLineItem{{ProductID: uuid.New(), Quantity: 1}}, "02144")

	assert.Equal(t, defaultWh.Code, wh.Code)
}

func TestSelectAllDropShipPicksNearest(t *testing.T) {
	mpls, dallas := testWarehouses()
	store := new(mockStockStore)
	store.On("GetActiveWarehouses", mock.Anything).Return([]models.Warehouse{dallas, mpls}, nil)
	store.On("HasAnyStock", mock.Anything, mock.Anything).Return(false, nil)

	selector := NewSelector(store, defaultWh, 4, testLogger())
	wh := selector.Select(context.Background(), []models.CartLineItem{{ProductID: uuid.New(), Quantity: 2}}, "02144")

	assert.Equal(t, "mpls", wh.Code)
	store.AssertNotCalled(t, "GetStockQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectPrefersStockedWarehouseOverNearer(t *testing.T) {
	mpls, dallas := testWarehouses()
	productID := uuid.New()

	store := new(mockStockStore)
	store.On("GetActiveWarehouses", mock.Anything).Return([]models.Warehouse{mpls, dallas}, nil)
	store.On("HasAnyStock", mock.Anything, productID).Return(true, nil)
	// Minneapolis is nearer to Boston but short on stock; Dallas covers it.
	store.On("GetStockQuantity", mock.Anything, productID, mpls.ID).Return(1, nil)
	store.On("GetStockQuantity", mock.Anything, productID, dallas.ID).Return(10, nil)

	selector := NewSelector(store, defaultWh, 4, testLogger())
	wh := selector.Select(context.Background(), []models.CartLineItem{{ProductID: productID, Quantity: 5}}, "02144")

	assert.Equal(t, "dallas", wh.Code)
}

func TestSelectUnsatisfiableStockFallsBackToNearest(t *testing.T) {
	mpls, dallas := testWarehouses()
	productID := uuid.New()

	store := new(mockStockStore)
	store.On("GetActiveWarehouses", mock.Anything).Return([]models.Warehouse{dallas, mpls}, nil)
	store.On("HasAnyStock", mock.Anything, productID).Return(true, nil)
	store.On("GetStockQuantity", mock.Anything, productID, mock.Anything).Return(0, nil)

	selector := NewSelector(store, defaultWh, 4, testLogger())
	wh := selector.Select(context.Background(), []models.CartLineItem{{ProductID: productID, Quantity: 5}}, "02144")

	// Backorder carts still quote from the nearest warehouse, never error.
	assert.Equal(t, "mpls", wh.Code)
}

func TestSelectStockLookupErrorReturnsDefault(t *testing.T) {
	mpls, dallas := testWarehouses()
	productID := uuid.New()

	store := new(mockStockStore)
	store.On("GetActiveWarehouses", mock.Anything).Return([]models.Warehouse{mpls, dallas}, nil)
	store.On("HasAnyStock", mock.Anything, productID).Return(true, nil)
	store.On("GetStockQuantity", mock.Anything, productID, mock.Anything).Return(0, errors.New("timeout"))

	selector := NewSelector(store, defaultWh, 4, testLogger())
	wh := selector.Select(context.Background(), []models.CartLineItem{{ProductID: productID, Quantity: 1}}, "02144")

	assert.Equal(t, defaultWh.Code, wh.Code)
}

func TestNearestWarehouseUnknownDestination(t *testing.T) {
	mpls, dallas := testWarehouses()

	// With an unmappable destination every distance is +Inf and the first
	// candidate wins deterministically.
	wh := nearestWarehouse([]models.Warehouse{dallas, mpls}, "00000")
	assert.Equal(t, "dallas", wh.Code)
}

func TestNearestWarehouseZipPrefixFallback(t *testing.T) {
	mpls, dallas := testWarehouses()
	mpls.Lat, mpls.Lng = nil, nil
	dallas.Lat, dallas.Lng = nil, nil

	wh := nearestWarehouse([]models.Warehouse{dallas, mpls}, "02144")
	assert.Equal(t, "mpls", wh.Code)
}
