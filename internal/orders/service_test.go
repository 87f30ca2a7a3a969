package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL DEFAULT 'TRY',
  shipping_address TEXT,
  billing_address TEXT,
  total_kurus INTEGER NOT NULL DEFAULT 0,
  estimated_delivery_date DATETIME NOT NULL,
  actual_delivery_date DATETIME,
  cancelled_at DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  product_title TEXT NOT NULL,
  size TEXT,
  color TEXT,
  quantity INTEGER NOT NULL,
  unit_price_kurus INTEGER NOT NULL,
  total_kurus INTEGER NOT NULL,
  created_at DATETIME
)`,
		`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newOrderService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, emitter, nil)
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID, sellerID uuid.UUID, status enums.OrderStatus) models.Order {
	t.Helper()
	number, err := NewOrderNumber()
	require.NoError(t, err)
	order := models.Order{
		ID:                    uuid.New(),
		OrderNumber:           number,
		BuyerID:               buyerID,
		SellerID:              sellerID,
		Status:                status,
		PaymentStatus:         enums.PaymentStatusPending,
		Currency:              enums.CurrencyTRY,
		TotalKurus:            250_00,
		EstimatedDeliveryDate: time.Now().UTC().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestAdvanceStatus_MovesForward(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	sellerID := uuid.New()
	order := seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusPending)

	updated, err := svc.AdvanceStatus(context.Background(), order.ID, sellerID, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.Status)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderStatusChanged).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestAdvanceStatus_BackwardRejected(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	sellerID := uuid.New()
	order := seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusShipped)

	_, err := svc.AdvanceStatus(context.Background(), order.ID, sellerID, enums.OrderStatusPreparing)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestAdvanceStatus_DeliveredStampsDate(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	sellerID := uuid.New()
	order := seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusShipped)

	deliveredAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return deliveredAt })

	updated, err := svc.AdvanceStatus(context.Background(), order.ID, sellerID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated.ActualDeliveryDate)
	assert.Equal(t, deliveredAt, updated.ActualDeliveryDate.UTC())

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.NotNil(t, stored.ActualDeliveryDate)
}

func TestAdvanceStatus_OtherSellerForbidden(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPending)

	_, err := svc.AdvanceStatus(context.Background(), order.ID, uuid.New(), enums.OrderStatusConfirmed)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestAdvanceStatus_CancellationNotASellerMove(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	sellerID := uuid.New()
	order := seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusPending)

	_, err := svc.AdvanceStatus(context.Background(), order.ID, sellerID, enums.OrderStatusCancelled)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestCancel_OnlyPendingAndOnlyBuyer(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	buyerID := uuid.New()
	ctx := context.Background()

	pending := seedOrder(t, db, buyerID, uuid.New(), enums.OrderStatusPending)

	_, err := svc.Cancel(ctx, pending.ID, uuid.New(), "")
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())

	cancelled, err := svc.Cancel(ctx, pending.ID, buyerID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	confirmed := seedOrder(t, db, buyerID, uuid.New(), enums.OrderStatusConfirmed)
	_, err = svc.Cancel(ctx, confirmed.ID, buyerID, "")
	domainErr = pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestGet_OnlyPartiesMayRead(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	buyerID := uuid.New()
	sellerID := uuid.New()
	order := seedOrder(t, db, buyerID, sellerID, enums.OrderStatusPending)
	ctx := context.Background()

	_, err := svc.Get(ctx, order.ID, buyerID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, order.ID, sellerID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, order.ID, uuid.New())
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestListForSeller_Paginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db)
	sellerID := uuid.New()
	for i := 0; i < 3; i++ {
		order := seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusPending)
		// spread created_at so the cursor ordering is deterministic
		require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("created_at", time.Now().UTC().Add(time.Duration(-i)*time.Hour)).Error)
	}

	page, next, err := svc.ListForSeller(context.Background(), sellerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	rest, next, err := svc.ListForSeller(context.Background(), sellerID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
}
