package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  short_code TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  city TEXT NOT NULL,
  commune TEXT,
  address TEXT,
  delivery_method TEXT NOT NULL,
  pickup_point_id TEXT,
  status TEXT NOT NULL,
  subtotal_amount INTEGER NOT NULL,
  delivery_fee_amount INTEGER NOT NULL DEFAULT 0,
  discount_amount INTEGER NOT NULL DEFAULT 0,
  total_amount INTEGER NOT NULL,
  applied_coupon_code TEXT,
  coupon_redeemed INTEGER NOT NULL DEFAULT 0,
  assigned_partner_id TEXT,
  commission_amount INTEGER,
  is_paid INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL,
  collection_code TEXT,
  delivered_at DATETIME,
  financial_processed INTEGER NOT NULL DEFAULT 0,
  refund_coupon_code TEXT,
  refund_coupon_value INTEGER,
  review_rating INTEGER,
  review_comment TEXT,
  reviewed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  supplier_id TEXT,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_amount INTEGER NOT NULL,
  capital_amount INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	statusEntries := `
CREATE TABLE IF NOT EXISTS order_status_entries (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`

	for _, stmt := range []string{orders, orderItems, statusEntries} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, shortCode string, status enums.OrderStatus, partnerID *uuid.UUID, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:             uuid.New(),
		ShortCode:      shortCode,
		CustomerName:   "Awa Kone",
		CustomerPhone:  "+2250701020304",
		City:           "Abidjan",
		DeliveryMethod: enums.DeliveryMethodHome,
		Status:         status,
		SubtotalAmount: 10000,
		TotalAmount:    11500,
		PaymentMethod:  enums.PaymentMethodCashOnDelivery,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	order.AssignedPartnerID = partnerID
	require.NoError(t, db.Create(order).Error)

	item := &models.OrderItem{
		ID:              uuid.New(),
		OrderID:         order.ID,
		ProductID:       uuid.New(),
		Name:            "Attieke 1kg",
		Quantity:        2,
		UnitPriceAmount: 5000,
		CreatedAt:       created,
	}
	require.NoError(t, db.Create(item).Error)

	entry := &models.OrderStatusEntry{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    status,
		CreatedAt: created,
	}
	require.NoError(t, db.Create(entry).Error)
	return order
}

func TestRepositoryFindByShortCodePreloadsChildren(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := createTestOrder(t, db, "AB12CD", enums.OrderStatusNew, nil, time.Now().UTC())

	found, err := repo.FindByShortCode(context.Background(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Attieke 1kg", found.Items[0].Name)
	require.Len(t, found.StatusHistory, 1)
	assert.Equal(t, enums.OrderStatusNew, found.StatusHistory[0].Status)
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	older := createTestOrder(t, db, "OLD111", enums.OrderStatusNew, nil, now.Add(-time.Hour))
	newer := createTestOrder(t, db, "NEW222", enums.OrderStatusNew, nil, now)

	list, err := repo.List(context.Background(), pagination.Params{Limit: 1}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.NotNil(t, list.NextCursor)
	assert.Equal(t, newer.ID, list.Orders[0].ID)

	second, err := repo.List(context.Background(), pagination.Params{Limit: 1, Cursor: *list.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, older.ID, second.Orders[0].ID)
	assert.Nil(t, second.NextCursor)
}

func TestRepositoryList_filters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	partnerID := uuid.New()
	now := time.Now().UTC()
	createTestOrder(t, db, "AAA111", enums.OrderStatusNew, nil, now.Add(-2*time.Minute))
	assigned := createTestOrder(t, db, "BBB222", enums.OrderStatusProcessing, &partnerID, now.Add(-time.Minute))
	createTestOrder(t, db, "CCC333", enums.OrderStatusDelivered, &partnerID, now)

	status := enums.OrderStatusProcessing
	list, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Status: &status, PartnerID: &partnerID})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, assigned.ID, list.Orders[0].ID)
	assert.Nil(t, list.NextCursor)
}

func TestRepositoryUpdateStatusGuarded(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, "GRD444", enums.OrderStatusNew, nil, time.Now().UTC())

	ok, err := repo.UpdateStatusGuarded(context.Background(), order.ID, enums.OrderStatusNew, enums.OrderStatusProcessing, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// A stale expectation must not win the race.
	ok, err = repo.UpdateStatusGuarded(context.Background(), order.ID, enums.OrderStatusNew, enums.OrderStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, found.Status)
}

func TestRepositoryUpdateFields(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, "FLD555", enums.OrderStatusDelivered, nil, time.Now().UTC())

	code := "7341"
	require.NoError(t, repo.UpdateFields(context.Background(), order.ID, map[string]any{
		"collection_code": code,
		"is_paid":         true,
	}))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.CollectionCode)
	assert.Equal(t, code, *found.CollectionCode)
	assert.True(t, found.IsPaid)
}
