package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
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

func newCartService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), listings.NewProductRepository(db), gormTxRunner{db: db}, nil)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, producerID uuid.UUID, price int64, qty int) models.Product {
	t.Helper()
	product := models.Product{
		ID:                   uuid.New(),
		ProducerID:           producerID,
		Title:                "linen tote",
		Category:             "textile",
		PriceKurus:           price,
		AvailableQuantity:    qty,
		NotificationSettings: types.DefaultNotificationSettings(),
		ListingLifecycle:     models.ListingLifecycle{IsActive: true, AutoDeactivateEnabled: true},
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, size, color string, stock int, price int64) models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{
		ID:         uuid.New(),
		ProductID:  productID,
		Size:       size,
		Color:      color,
		Stock:      stock,
		PriceKurus: price,
	}
	require.NoError(t, db.Create(&variant).Error)
	return variant
}

func TestAddItem_CreatesCartAndRecomputesTotals(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 10)
	buyerID := uuid.New()

	cart, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, buyerID, cart.BuyerID)
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, int64(150_00), cart.TotalKurus)
	assert.Equal(t, int64(1), cart.Version)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(150_00), cart.Items[0].TotalKurus)
}

func TestAddItem_MergesDuplicateLines(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 10)
	buyerID := uuid.New()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, buyerID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, buyerID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.ItemCount)
	assert.Equal(t, int64(250_00), cart.TotalKurus)
	assert.Equal(t, int64(2), cart.Version)
}

func TestAddItem_MergedQuantityBoundedByStock(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 4)
	buyerID := uuid.New()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, buyerID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, buyerID, AddItemInput{ProductID: product.ID, Quantity: 2})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeConflict, domainErr.Code())

	// the failed write left the cart untouched
	cart, err := svc.Get(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, int64(150_00), cart.TotalKurus)
}

func TestAddItem_OwnProductForbidden(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	producerID := uuid.New()
	product := seedProduct(t, db, producerID, 50_00, 10)

	_, err := svc.AddItem(context.Background(), producerID, AddItemInput{ProductID: product.ID, Quantity: 1})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestAddItem_VariantSelectorMandatory(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 0)
	seedVariant(t, db, product.ID, "M", "black", 5, 60_00)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: product.ID, Quantity: 1})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestAddItem_ResolvesVariantBySizeAndColor(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 0)
	seedVariant(t, db, product.ID, "M", "black", 5, 60_00)
	want := seedVariant(t, db, product.ID, "L", "black", 5, 65_00)
	size, color := "L", "black"

	cart, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		ProductID: product.ID,
		Size:      &size,
		Color:     &color,
		Quantity:  2,
	})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.NotNil(t, cart.Items[0].VariantID)
	assert.Equal(t, want.ID, *cart.Items[0].VariantID)
	assert.Equal(t, int64(130_00), cart.TotalKurus)
}

func TestAddItem_NoVariantMatchesSelection(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 0)
	seedVariant(t, db, product.ID, "M", "black", 5, 60_00)
	size, color := "M", "green"

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		ProductID: product.ID,
		Size:      &size,
		Color:     &color,
		Quantity:  1,
	})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}

func TestUpdateItemQuantity_RevalidatesStock(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	product := seedProduct(t, db, uuid.New(), 50_00, 5)
	buyerID := uuid.New()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, buyerID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItemQuantity(ctx, buyerID, itemID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.ItemCount)
	assert.Equal(t, int64(250_00), cart.TotalKurus)

	_, err = svc.UpdateItemQuantity(ctx, buyerID, itemID, 6)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeConflict, domainErr.Code())
}

func TestRemoveItemAndClear(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	seller := uuid.New()
	first := seedProduct(t, db, seller, 50_00, 10)
	second := seedProduct(t, db, seller, 30_00, 10)
	buyerID := uuid.New()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, buyerID, AddItemInput{ProductID: first.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, buyerID, AddItemInput{ProductID: second.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	cart, err = svc.RemoveItem(ctx, buyerID, cart.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, cart.Items[0].TotalKurus, cart.TotalKurus)

	_, err = svc.RemoveItem(ctx, buyerID, uuid.New())
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())

	require.NoError(t, svc.Clear(ctx, buyerID))
	cart, err = svc.Get(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.ItemCount)
	assert.Zero(t, cart.TotalKurus)
}
