package listings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
)

func TestCreateProduct_StartsActiveWithWindow(t *testing.T) {
	db := setupListingsTestDB(t)
	producerID := uuid.New()

	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, db).WithNow(func() time.Time { return base })

	product, err := svc.CreateProduct(context.Background(), producerID, CreateProductInput{
		Title:             "pamuklu tişört",
		Category:          "textile",
		PriceKurus:        120_00,
		AvailableQuantity: 40,
		MediaURLs:         []string{"https://cdn.uretimhub.dev/p/1.jpg"},
		Variants: []VariantInput{
			{Size: "M", Color: "beyaz", Stock: 20, PriceKurus: 120_00},
			{Size: "L", Color: "beyaz", Stock: 20, PriceKurus: 125_00},
		},
	})
	require.NoError(t, err)

	var stored models.Product
	require.NoError(t, db.Preload("Variants").First(&stored, "id = ?", product.ID).Error)
	assert.True(t, stored.IsActive)
	require.NotNil(t, stored.AutoDeactivateAt)
	assert.Equal(t, base.Add(14*24*time.Hour), stored.AutoDeactivateAt.UTC())
	assert.Len(t, stored.Variants, 2)
	assert.True(t, stored.NotificationSettings.AutoDeactivateReminder)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventListingActivated, product.ID).
		Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestCreateProduct_RejectsInvalidInput(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	producerID := uuid.New()

	cases := []CreateProductInput{
		{Title: "", Category: "textile", PriceKurus: 100},
		{Title: "tişört", Category: "", PriceKurus: 100},
		{Title: "tişört", Category: "textile", PriceKurus: 0},
		{Title: "tişört", Category: "textile", PriceKurus: 100, AvailableQuantity: -1},
		{Title: "tişört", Category: "textile", PriceKurus: 100, Variants: []VariantInput{{Size: "", Color: "mavi", PriceKurus: 100}}},
		{Title: "tişört", Category: "textile", PriceKurus: 100, Variants: []VariantInput{{Size: "M", Color: "mavi", Stock: -1, PriceKurus: 100}}},
	}
	for _, input := range cases {
		_, err := svc.CreateProduct(ctx, producerID, input)
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestCreateProductionListing_StartsActiveWithWindow(t *testing.T) {
	db := setupListingsTestDB(t)
	producerID := uuid.New()

	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, db).WithNow(func() time.Time { return base })

	unit := int64(30_00)
	listing, err := svc.CreateProductionListing(context.Background(), producerID, CreateProductionListingInput{
		Title:            "dikiş kapasitesi",
		Category:         "textile",
		MonthlyCapacity:  5000,
		MinOrderQuantity: 100,
		UnitPriceKurus:   &unit,
		Materials:        []string{"pamuk", "polyester"},
	})
	require.NoError(t, err)

	var stored models.ProductionListing
	require.NoError(t, db.First(&stored, "id = ?", listing.ID).Error)
	assert.True(t, stored.IsActive)
	require.NotNil(t, stored.AutoDeactivateAt)
	assert.Equal(t, base.Add(14*24*time.Hour), stored.AutoDeactivateAt.UTC())
	assert.Equal(t, 100, stored.MinOrderQuantity)
}

func TestCreateProductionListing_RequiresMinOrderQuantity(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.CreateProductionListing(context.Background(), uuid.New(), CreateProductionListingInput{
		Title:            "dikiş kapasitesi",
		Category:         "textile",
		MinOrderQuantity: 0,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetProduct_NotFound(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListProducerProducts_ScopedToOwner(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	mine := uuid.New()
	other := uuid.New()
	seedProduct(t, db, mine)
	seedProduct(t, db, mine)
	seedProduct(t, db, other)

	items, err := svc.ListProducerProducts(ctx, mine)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
