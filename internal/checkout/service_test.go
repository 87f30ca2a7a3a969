package checkout

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/internal/cart"
	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/internal/orders"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:checkout_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  producer_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  price_kurus INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'TRY',
  available_quantity INTEGER NOT NULL DEFAULT 0,
  total_likes INTEGER NOT NULL DEFAULT 0,
  total_comments INTEGER NOT NULL DEFAULT 0,
  total_offers INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  total_views INTEGER NOT NULL DEFAULT 0,
  total_revenue_kurus INTEGER NOT NULL DEFAULT 0,
  rating REAL NOT NULL DEFAULT 0,
  total_ratings INTEGER NOT NULL DEFAULT 0,
  media_urls TEXT,
  notification_settings TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  auto_deactivate_enabled INTEGER NOT NULL DEFAULT 1,
  last_activated_at DATETIME,
  auto_deactivate_at DATETIME,
  deactivated_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  size TEXT NOT NULL,
  color TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  price_kurus INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL UNIQUE,
  version INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'TRY',
  item_count INTEGER NOT NULL DEFAULT 0,
  total_kurus INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  variant_id TEXT,
  size TEXT,
  color TEXT,
  product_title TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_kurus INTEGER NOT NULL,
  total_kurus INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
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

func newCheckoutService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(
		cart.NewRepository(db),
		orders.NewRepository(db),
		listings.NewProductRepository(db),
		gormTxRunner{db: db},
		emitter,
		nil,
	)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, price int64, qty int) models.Product {
	t.Helper()
	product := models.Product{
		ID:                   uuid.New(),
		ProducerID:           sellerID,
		Title:                "ceramic mug",
		Category:             "homeware",
		PriceKurus:           price,
		AvailableQuantity:    qty,
		NotificationSettings: types.DefaultNotificationSettings(),
		ListingLifecycle:     models.ListingLifecycle{IsActive: true, AutoDeactivateEnabled: true},
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedCart(t *testing.T, db *gorm.DB, buyerID uuid.UUID, lines []models.CartItem) models.Cart {
	t.Helper()
	buyerCart := models.Cart{ID: uuid.New(), BuyerID: buyerID, Version: 1, Currency: enums.CurrencyTRY}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].CartID = buyerCart.ID
		buyerCart.ItemCount += lines[i].Quantity
		buyerCart.TotalKurus += lines[i].TotalKurus
	}
	require.NoError(t, db.Create(&buyerCart).Error)
	for i := range lines {
		require.NoError(t, db.Create(&lines[i]).Error)
	}
	return buyerCart
}

func testAddress() types.Address {
	return types.Address{
		FullName:   "Ayşe Demir",
		Line1:      "Bağdat Cad. 42",
		District:   "Kadıköy",
		City:       "İstanbul",
		PostalCode: "34710",
		Country:    "TR",
	}
}

func TestExecute_OneOrderPerSeller(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	sellerA := uuid.New()
	sellerB := uuid.New()
	productA := seedProduct(t, db, sellerA, 40_00, 10)
	productB := seedProduct(t, db, sellerB, 25_00, 10)
	buyerID := uuid.New()

	seedCart(t, db, buyerID, []models.CartItem{
		{ProductID: productA.ID, SellerID: sellerA, ProductTitle: productA.Title, Quantity: 2, UnitPriceKurus: 40_00, TotalKurus: 80_00},
		{ProductID: productB.ID, SellerID: sellerB, ProductTitle: productB.Title, Quantity: 3, UnitPriceKurus: 25_00, TotalKurus: 75_00},
	})

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return at })

	created, err := svc.Execute(context.Background(), buyerID, Input{ShippingAddress: testAddress()})
	require.NoError(t, err)
	require.Len(t, created, 2)

	pattern := regexp.MustCompile(`^UX-[A-Z0-9]{8}$`)
	bySeller := map[uuid.UUID]models.Order{}
	for _, order := range created {
		assert.Regexp(t, pattern, order.OrderNumber)
		assert.Equal(t, enums.OrderStatusPending, order.Status)
		assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
		assert.Equal(t, at.Add(7*24*time.Hour), order.EstimatedDeliveryDate)
		require.NotNil(t, order.ShippingAddress)
		require.NotNil(t, order.BillingAddress)
		assert.Equal(t, "Ayşe Demir", order.BillingAddress.FullName)
		bySeller[order.SellerID] = order
	}
	assert.NotEqual(t, created[0].OrderNumber, created[1].OrderNumber)
	assert.Equal(t, int64(80_00), bySeller[sellerA].TotalKurus)
	assert.Equal(t, int64(75_00), bySeller[sellerB].TotalKurus)

	// stock taken
	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", productA.ID).Error)
	assert.Equal(t, 8, stored.AvailableQuantity)

	// cart cleared last
	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&items).Error)
	assert.Zero(t, items)
	var storedCart models.Cart
	require.NoError(t, db.First(&storedCart, "buyer_id = ?", buyerID).Error)
	assert.Zero(t, storedCart.ItemCount)
	assert.Zero(t, storedCart.TotalKurus)
	assert.Equal(t, int64(2), storedCart.Version)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderCreated).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestExecute_InsufficientStockAbortsEverything(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	sellerA := uuid.New()
	sellerB := uuid.New()
	productA := seedProduct(t, db, sellerA, 40_00, 10)
	productB := seedProduct(t, db, sellerB, 25_00, 1)
	buyerID := uuid.New()

	seedCart(t, db, buyerID, []models.CartItem{
		{ProductID: productA.ID, SellerID: sellerA, ProductTitle: productA.Title, Quantity: 2, UnitPriceKurus: 40_00, TotalKurus: 80_00},
		{ProductID: productB.ID, SellerID: sellerB, ProductTitle: productB.Title, Quantity: 3, UnitPriceKurus: 25_00, TotalKurus: 75_00},
	})

	_, err := svc.Execute(context.Background(), buyerID, Input{ShippingAddress: testAddress()})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeConflict, domainErr.Code())

	// nothing happened: no orders, stock restored, cart intact
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", productA.ID).Error)
	assert.Equal(t, 10, stored.AvailableQuantity)

	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&items).Error)
	assert.Equal(t, int64(2), items)
}

func TestExecute_EmptyCartRejected(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	buyerID := uuid.New()
	seedCart(t, db, buyerID, nil)

	_, err := svc.Execute(context.Background(), buyerID, Input{ShippingAddress: testAddress()})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestExecute_MissingAddressRejected(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	_, err := svc.Execute(context.Background(), uuid.New(), Input{})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestExecute_VariantLinesDecrementVariantStock(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID, 0, 0)
	variant := models.ProductVariant{
		ID:         uuid.New(),
		ProductID:  product.ID,
		Size:       "M",
		Color:      "black",
		Stock:      5,
		PriceKurus: 60_00,
	}
	require.NoError(t, db.Create(&variant).Error)
	buyerID := uuid.New()
	size, color := variant.Size, variant.Color

	seedCart(t, db, buyerID, []models.CartItem{
		{ProductID: product.ID, SellerID: sellerID, VariantID: &variant.ID, Size: &size, Color: &color,
			ProductTitle: product.Title, Quantity: 2, UnitPriceKurus: 60_00, TotalKurus: 120_00},
	})

	created, err := svc.Execute(context.Background(), buyerID, Input{ShippingAddress: testAddress()})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Len(t, created[0].Items, 1)
	require.NotNil(t, created[0].Items[0].VariantID)
	assert.Equal(t, variant.ID, *created[0].Items[0].VariantID)

	var stored models.ProductVariant
	require.NoError(t, db.First(&stored, "id = ?", variant.ID).Error)
	assert.Equal(t, 3, stored.Stock)
}
