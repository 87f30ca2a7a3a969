package listings

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

// VariantInput describes one (size, color) stock tuple on a new product.
type VariantInput struct {
	Size       string
	Color      string
	Stock      int
	PriceKurus int64
}

// CreateProductInput carries the fields a producer supplies for a new
// catalog product. The listing starts active with a fresh window.
type CreateProductInput struct {
	Title             string
	Description       *string
	Category          string
	PriceKurus        int64
	AvailableQuantity int
	MediaURLs         []string
	Variants          []VariantInput
}

// CreateProductionListingInput carries the fields for a new capacity
// listing on the job board.
type CreateProductionListingInput struct {
	Title            string
	Description      *string
	Category         string
	MonthlyCapacity  int
	MinOrderQuantity int
	UnitPriceKurus   *int64
	Materials        []string
}

func validateListingHead(title, category string) error {
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	return nil
}

// CreateProduct persists a new product owned by the producer. Creation is
// an activation edge: the deactivation window starts now and an activation
// event is emitted in the same transaction.
func (s *Service) CreateProduct(ctx context.Context, producerID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if err := validateListingHead(input.Title, input.Category); err != nil {
		return nil, err
	}
	if input.PriceKurus <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.AvailableQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity must not be negative")
	}
	for _, v := range input.Variants {
		if strings.TrimSpace(v.Size) == "" || strings.TrimSpace(v.Color) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant size and color are required")
		}
		if v.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant stock must not be negative")
		}
		if v.PriceKurus <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price must be positive")
		}
	}

	at := s.now().UTC()
	deadline := at.Add(s.activeWindow)

	product := &models.Product{
		ID:                   uuid.New(),
		ProducerID:           producerID,
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		Category:             strings.TrimSpace(input.Category),
		PriceKurus:           input.PriceKurus,
		Currency:             enums.CurrencyTRY,
		AvailableQuantity:    input.AvailableQuantity,
		MediaURLs:            pq.StringArray(input.MediaURLs),
		NotificationSettings: types.DefaultNotificationSettings(),
		ListingLifecycle: models.ListingLifecycle{
			IsActive:              true,
			AutoDeactivateEnabled: true,
			LastActivatedAt:       &at,
			AutoDeactivateAt:      &deadline,
		},
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			ID:         uuid.New(),
			ProductID:  product.ID,
			Size:       strings.TrimSpace(v.Size),
			Color:      strings.TrimSpace(v.Color),
			Stock:      v.Stock,
			PriceKurus: v.PriceKurus,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.products.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingActivated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: producerID, Role: "producer"},
			Data: payloads.ListingActivatedEvent{
				ListingID:        product.ID,
				ListingKind:      enums.ListingKindProduct,
				ProducerID:       producerID,
				ActivatedAt:      at,
				AutoDeactivateAt: deadline,
			},
			Version:    1,
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return product, nil
}

// CreateProductionListing persists a new capacity listing owned by the
// producer, active with a fresh window.
func (s *Service) CreateProductionListing(ctx context.Context, producerID uuid.UUID, input CreateProductionListingInput) (*models.ProductionListing, error) {
	if err := validateListingHead(input.Title, input.Category); err != nil {
		return nil, err
	}
	if input.MonthlyCapacity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monthly capacity must not be negative")
	}
	if input.MinOrderQuantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order quantity must be at least 1")
	}
	if input.UnitPriceKurus != nil && *input.UnitPriceKurus <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	at := s.now().UTC()
	deadline := at.Add(s.activeWindow)

	listing := &models.ProductionListing{
		ID:                   uuid.New(),
		ProducerID:           producerID,
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		Category:             strings.TrimSpace(input.Category),
		MonthlyCapacity:      input.MonthlyCapacity,
		MinOrderQuantity:     input.MinOrderQuantity,
		UnitPriceKurus:       input.UnitPriceKurus,
		Materials:            pq.StringArray(input.Materials),
		Currency:             enums.CurrencyTRY,
		NotificationSettings: types.DefaultNotificationSettings(),
		ListingLifecycle: models.ListingLifecycle{
			IsActive:              true,
			AutoDeactivateEnabled: true,
			LastActivatedAt:       &at,
			AutoDeactivateAt:      &deadline,
		},
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.productionListings.WithTx(tx).Create(ctx, listing); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingActivated,
			AggregateType: enums.AggregateProductionListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: producerID, Role: "producer"},
			Data: payloads.ListingActivatedEvent{
				ListingID:        listing.ID,
				ListingKind:      enums.ListingKindProductionListing,
				ProducerID:       producerID,
				ActivatedAt:      at,
				AutoDeactivateAt: deadline,
			},
			Version:    1,
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating production listing")
	}
	return listing, nil
}

// GetProduct loads a product with its variants.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByIDWithVariants(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return product, nil
}

// GetProductionListing loads a capacity listing.
func (s *Service) GetProductionListing(ctx context.Context, id uuid.UUID) (*models.ProductionListing, error) {
	listing, err := s.productionListings.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return listing, nil
}

// ListProducerProducts returns the producer's products, newest first.
func (s *Service) ListProducerProducts(ctx context.Context, producerID uuid.UUID) ([]models.Product, error) {
	items, err := s.products.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return items, nil
}

// ListProducerProductionListings returns the producer's capacity listings,
// newest first.
func (s *Service) ListProducerProductionListings(ctx context.Context, producerID uuid.UUID) ([]models.ProductionListing, error) {
	items, err := s.productionListings.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing production listings")
	}
	return items, nil
}
