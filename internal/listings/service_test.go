package listings

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
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

func setupListingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:listings_%s?mode=memory&cache=shared", uuid.NewString())
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
		`CREATE TABLE production_listings (
  id TEXT PRIMARY KEY,
  producer_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  monthly_capacity INTEGER NOT NULL DEFAULT 0,
  min_order_quantity INTEGER NOT NULL DEFAULT 1,
  unit_price_kurus INTEGER,
  currency TEXT NOT NULL DEFAULT 'TRY',
  total_likes INTEGER NOT NULL DEFAULT 0,
  total_comments INTEGER NOT NULL DEFAULT 0,
  total_offers INTEGER NOT NULL DEFAULT 0,
  total_views INTEGER NOT NULL DEFAULT 0,
  materials TEXT,
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

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(
		NewProductRepository(db),
		NewProductionListingRepository(db),
		gormTxRunner{db: db},
		emitter,
		nil,
		14*24*time.Hour,
	)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, producerID uuid.UUID) models.Product {
	t.Helper()
	product := models.Product{
		ID:                   uuid.New(),
		ProducerID:           producerID,
		Title:                "cnc machined bracket",
		Category:             "metal",
		PriceKurus:           250_00,
		AvailableQuantity:    10,
		NotificationSettings: types.DefaultNotificationSettings(),
		ListingLifecycle:     models.ListingLifecycle{IsActive: true, AutoDeactivateEnabled: true},
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestActivate_ResetsWindowFromNow(t *testing.T) {
	db := setupListingsTestDB(t)
	producerID := uuid.New()
	product := seedProduct(t, db, producerID)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db).WithNow(func() time.Time { return base })

	res, err := svc.Activate(context.Background(), enums.ListingKindProduct, product.ID, producerID)
	require.NoError(t, err)
	assert.Equal(t, base, res.ActivatedAt)
	assert.Equal(t, base.Add(14*24*time.Hour), res.AutoDeactivateAt)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	require.NotNil(t, stored.AutoDeactivateAt)
	assert.WithinDuration(t, base.Add(14*24*time.Hour), *stored.AutoDeactivateAt, time.Second)
	assert.True(t, stored.IsActive)
}

func TestActivate_ReactivationExtendsWindow(t *testing.T) {
	db := setupListingsTestDB(t)
	producerID := uuid.New()
	product := seedProduct(t, db, producerID)

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(10 * 24 * time.Hour)

	now := first
	svc := newTestService(t, db).WithNow(func() time.Time { return now })

	_, err := svc.Activate(context.Background(), enums.ListingKindProduct, product.ID, producerID)
	require.NoError(t, err)

	now = second
	res, err := svc.Activate(context.Background(), enums.ListingKindProduct, product.ID, producerID)
	require.NoError(t, err)

	// The deadline is anchored on the second activation, not the first.
	assert.Equal(t, second.Add(14*24*time.Hour), res.AutoDeactivateAt)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	require.NotNil(t, stored.AutoDeactivateAt)
	assert.WithinDuration(t, second.Add(14*24*time.Hour), *stored.AutoDeactivateAt, time.Second)
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.DeactivatedAt)
}

func TestActivate_NonOwnerForbidden(t *testing.T) {
	db := setupListingsTestDB(t)
	product := seedProduct(t, db, uuid.New())
	svc := newTestService(t, db)

	_, err := svc.Activate(context.Background(), enums.ListingKindProduct, product.ID, uuid.New())
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestActivate_UnknownListingNotFound(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Activate(context.Background(), enums.ListingKindProduct, uuid.New(), uuid.New())
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}

func TestActivate_EmitsOutboxEvent(t *testing.T) {
	db := setupListingsTestDB(t)
	producerID := uuid.New()
	product := seedProduct(t, db, producerID)
	svc := newTestService(t, db)

	_, err := svc.Activate(context.Background(), enums.ListingKindProduct, product.ID, producerID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventListingActivated, product.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeactivate_OwnerTurnsListingOff(t *testing.T) {
	db := setupListingsTestDB(t)
	producerID := uuid.New()
	product := seedProduct(t, db, producerID)

	base := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, db).WithNow(func() time.Time { return base })

	require.NoError(t, svc.Deactivate(context.Background(), enums.ListingKindProduct, product.ID, producerID))

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.DeactivatedAt)
	assert.Nil(t, stored.AutoDeactivateAt)
}

func TestLifecycleQueries_SplitExpiredAndExpiring(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewProductRepository(db)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	expired := seedProduct(t, db, uuid.New())
	expiring := seedProduct(t, db, uuid.New())
	healthy := seedProduct(t, db, uuid.New())

	set := func(id uuid.UUID, at time.Time) {
		require.NoError(t, db.Model(&models.Product{}).Where("id = ?", id).
			Update("auto_deactivate_at", at).Error)
	}
	set(expired.ID, now.Add(-2*time.Hour))
	set(expiring.ID, now.Add(3*24*time.Hour))
	set(healthy.ID, now.Add(12*24*time.Hour))

	gone, err := repo.FindExpired(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, gone, 1)
	assert.Equal(t, expired.ID, gone[0].ID)

	soon, err := repo.FindExpiringWithin(context.Background(), now, now.Add(7*24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, expiring.ID, soon[0].ID)
}
