package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/internal/listings"
	dbpkg "github.com/uretimhub/uretimhub-backend/pkg/db"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
)

// maxCasAttempts bounds the optimistic retry loop on concurrent cart writes.
const maxCasAttempts = 3

var errVersionMismatch = errors.New("cart version changed")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddItemInput is the validated payload for adding a product to the cart.
// When the product has variants the caller must pin one, either by ID or by
// the exact (size, color) pair.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Size      *string
	Color     *string
	Quantity  int
}

// Service owns the one-cart-per-buyer aggregate. Writes are serialized per
// buyer through the cart version: a mutation commits only when the version
// it read is still current, and retries a bounded number of times otherwise.
type Service struct {
	repo     *Repository
	products *listings.ProductRepository
	tx       txRunner
	logg     *logger.Logger
}

// NewService constructs the cart service.
func NewService(repo *Repository, products *listings.ProductRepository, tx txRunner, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &Service{repo: repo, products: products, tx: tx, logg: logg}, nil
}

// Get returns the buyer's cart. Buyers without a cart get an empty,
// unpersisted one.
func (s *Service) Get(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart == nil {
		return &models.Cart{BuyerID: buyerID, Currency: enums.CurrencyTRY, Items: []models.CartItem{}}, nil
	}
	return cart, nil
}

type resolvedLine struct {
	variantID      *uuid.UUID
	size           *string
	color          *string
	unitPriceKurus int64
	stock          int
}

// resolveLine pins the priced unit the cart line refers to. Products with
// variants always sell through a variant; the base product row is never a
// valid target for them.
func resolveLine(product *models.Product, input AddItemInput) (*resolvedLine, error) {
	if len(product.Variants) == 0 {
		if input.VariantID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no variants")
		}
		return &resolvedLine{
			unitPriceKurus: product.PriceKurus,
			stock:          product.AvailableQuantity,
		}, nil
	}

	var variant *models.ProductVariant
	switch {
	case input.VariantID != nil:
		for i := range product.Variants {
			if product.Variants[i].ID == *input.VariantID {
				variant = &product.Variants[i]
				break
			}
		}
	case input.Size != nil && input.Color != nil:
		for i := range product.Variants {
			if product.Variants[i].Size == *input.Size && product.Variants[i].Color == *input.Color {
				variant = &product.Variants[i]
				break
			}
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a variant must be selected for this product")
	}
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no variant matches the selection")
	}

	size, color := variant.Size, variant.Color
	return &resolvedLine{
		variantID:      &variant.ID,
		size:           &size,
		color:          &color,
		unitPriceKurus: variant.PriceKurus,
		stock:          variant.Stock,
	}, nil
}

// AddItem adds a product to the buyer's cart, merging into an existing line
// with the same (product, variant) key. The merged quantity is validated
// against current stock.
func (s *Service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByIDWithVariants(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product.ProducerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "producers cannot add their own product to a cart")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not active")
	}

	line, err := resolveLine(product, input)
	if err != nil {
		return nil, err
	}

	return s.withCart(ctx, buyerID, true, func(tx *gorm.DB, cart *models.Cart) error {
		existing, err := s.repo.FindLineTx(tx, cart.ID, product.ID, line.variantID)
		if err != nil {
			return err
		}

		merged := input.Quantity
		if existing != nil {
			merged += existing.Quantity
		}
		if merged > line.stock {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}

		if existing != nil {
			return s.repo.UpdateLineQuantityTx(tx, existing.ID, merged, int64(merged)*line.unitPriceKurus)
		}
		return s.repo.InsertLineTx(tx, models.CartItem{
			ID:             uuid.New(),
			CartID:         cart.ID,
			ProductID:      product.ID,
			SellerID:       product.ProducerID,
			VariantID:      line.variantID,
			Size:           line.size,
			Color:          line.color,
			ProductTitle:   product.Title,
			Quantity:       merged,
			UnitPriceKurus: line.unitPriceKurus,
			TotalKurus:     int64(merged) * line.unitPriceKurus,
		})
	})
}

// UpdateItemQuantity rewrites one line's quantity, re-validated against
// current stock.
func (s *Service) UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return s.withCart(ctx, buyerID, false, func(tx *gorm.DB, cart *models.Cart) error {
		item, err := s.repo.FindLineByIDTx(tx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		stock, err := s.lineStock(ctx, item)
		if err != nil {
			return err
		}
		if quantity > stock {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}
		return s.repo.UpdateLineQuantityTx(tx, item.ID, quantity, int64(quantity)*item.UnitPriceKurus)
	})
}

// RemoveItem drops one line from the cart.
func (s *Service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*models.Cart, error) {
	return s.withCart(ctx, buyerID, false, func(tx *gorm.DB, cart *models.Cart) error {
		removed, err := s.repo.DeleteLineTx(tx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil
	})
}

// Clear empties the buyer's cart. Clearing an absent cart is a no-op.
func (s *Service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart == nil {
		return nil
	}
	_, err = s.withCart(ctx, buyerID, false, func(tx *gorm.DB, c *models.Cart) error {
		return s.repo.DeleteLinesTx(tx, c.ID)
	})
	return err
}

// lineStock resolves the current stock backing a cart line.
func (s *Service) lineStock(ctx context.Context, item *models.CartItem) (int, error) {
	product, err := s.products.FindByIDWithVariants(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return 0, err
	}
	if item.VariantID == nil {
		return product.AvailableQuantity, nil
	}
	for i := range product.Variants {
		if product.Variants[i].ID == *item.VariantID {
			return product.Variants[i].Stock, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product variant no longer exists")
}

// withCart runs fn against the buyer's cart under the optimistic version
// check, retrying a bounded number of times on concurrent writes, and
// returns the reloaded cart on success.
func (s *Service) withCart(ctx context.Context, buyerID uuid.UUID, createMissing bool, fn func(tx *gorm.DB, cart *models.Cart) error) (*models.Cart, error) {
	for attempt := 0; attempt < maxCasAttempts; attempt++ {
		cart, err := s.loadCart(ctx, buyerID, createMissing)
		if err != nil {
			return nil, err
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := fn(tx, cart); err != nil {
				return err
			}
			committed, err := s.repo.CommitTx(tx, cart.ID, cart.Version)
			if err != nil {
				return err
			}
			if !committed {
				return errVersionMismatch
			}
			return nil
		})
		if errors.Is(err, errVersionMismatch) {
			continue
		}
		if err != nil {
			if domainErr := pkgerrors.As(err); domainErr != nil {
				return nil, domainErr
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart")
		}

		updated, err := s.repo.FindByBuyer(ctx, buyerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading cart")
		}
		return updated, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is being modified concurrently")
}

// loadCart fetches the buyer's cart, creating it when allowed. A concurrent
// create loses the unique race and falls back to the winner's row.
func (s *Service) loadCart(ctx context.Context, buyerID uuid.UUID, createMissing bool) (*models.Cart, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart != nil {
		return cart, nil
	}
	if !createMissing {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}

	fresh := models.Cart{ID: uuid.New(), BuyerID: buyerID, Currency: enums.CurrencyTRY}
	if err := s.repo.Create(ctx, &fresh); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_carts_buyer") {
			cart, err = s.repo.FindByBuyer(ctx, buyerID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
			}
			if cart != nil {
				return cart, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return &fresh, nil
}
