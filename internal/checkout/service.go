package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/internal/cart"
	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/internal/orders"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

const (
	// deliveryEstimate is added to the checkout time for every order.
	deliveryEstimate = 7 * 24 * time.Hour
	// maxNumberAttempts bounds the order number collision retry.
	maxNumberAttempts = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Input carries the buyer's checkout payload. A missing billing address
// falls back to the shipping address.
type Input struct {
	ShippingAddress types.Address
	BillingAddress  *types.Address
	Notes           *string
}

// Service turns a cart into orders. One checkout produces one order per
// seller present in the cart, all inside a single transaction: stock is
// decremented conditionally for every line, and the cart is cleared only
// after every order persisted.
type Service struct {
	carts    *cart.Repository
	orders   *orders.Repository
	products *listings.ProductRepository
	tx       txRunner
	outbox   outboxEmitter
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the checkout service.
func NewService(
	carts *cart.Repository,
	orderRepo *orders.Repository,
	products *listings.ProductRepository,
	tx txRunner,
	emitter outboxEmitter,
	logg *logger.Logger,
) (*Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Service{
		carts:    carts,
		orders:   orderRepo,
		products: products,
		tx:       tx,
		outbox:   emitter,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// WithNow swaps the clock.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Execute checks out the buyer's cart. Either every order is created, every
// stock decrement holds, and the cart is emptied, or nothing happens.
func (s *Service) Execute(ctx context.Context, buyerID uuid.UUID, input Input) ([]models.Order, error) {
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	if input.BillingAddress != nil {
		if err := input.BillingAddress.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address")
		}
	}

	buyerCart, err := s.carts.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if buyerCart == nil || len(buyerCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	billing := input.BillingAddress
	if billing == nil {
		addr := input.ShippingAddress
		billing = &addr
	}

	at := s.now().UTC()
	estimated := at.Add(deliveryEstimate)
	groups := partitionBySeller(buyerCart.Items)

	var created []models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created = created[:0]
		for _, group := range groups {
			number, err := s.uniqueOrderNumber(tx)
			if err != nil {
				return err
			}

			shipping := input.ShippingAddress
			billingCopy := *billing
			order := models.Order{
				ID:                    uuid.New(),
				OrderNumber:           number,
				BuyerID:               buyerID,
				SellerID:              group.sellerID,
				Status:                enums.OrderStatusPending,
				PaymentStatus:         enums.PaymentStatusPending,
				Currency:              buyerCart.Currency,
				ShippingAddress:       &shipping,
				BillingAddress:        &billingCopy,
				EstimatedDeliveryDate: estimated,
				Notes:                 input.Notes,
			}

			for _, item := range group.items {
				if err := s.takeStock(tx, item); err != nil {
					return err
				}
				order.Items = append(order.Items, models.OrderItem{
					ID:             uuid.New(),
					OrderID:        order.ID,
					ProductID:      item.ProductID,
					VariantID:      item.VariantID,
					ProductTitle:   item.ProductTitle,
					Size:           item.Size,
					Color:          item.Color,
					Quantity:       item.Quantity,
					UnitPriceKurus: item.UnitPriceKurus,
					TotalKurus:     item.TotalKurus,
				})
				order.TotalKurus += item.TotalKurus
			}

			if err := s.orders.InsertTx(tx, &order); err != nil {
				return err
			}
			created = append(created, order)
		}

		refs := make([]payloads.OrderRef, 0, len(created))
		for _, order := range created {
			refs = append(refs, payloads.OrderRef{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				SellerID:    order.SellerID,
				TotalKurus:  order.TotalKurus,
			})
		}
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateCart,
			AggregateID:   buyerCart.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: "buyer"},
			Version:       1,
			OccurredAt:    at,
			Data:          payloads.OrderCreatedEvent{BuyerID: buyerID, OrderIDs: refs},
		})
		if err != nil {
			return err
		}

		// clearing last, under the version read above, rejects carts that
		// changed while checkout ran
		if err := s.carts.DeleteLinesTx(tx, buyerCart.ID); err != nil {
			return err
		}
		committed, err := s.carts.CommitTx(tx, buyerCart.ID, buyerCart.Version)
		if err != nil {
			return err
		}
		if !committed {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout")
		}
		return nil
	})
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			return nil, domainErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "executing checkout")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"buyer_id":    buyerID.String(),
			"order_count": len(created),
		})
		s.logg.Info(logCtx, "checkout completed")
	}
	return created, nil
}

// takeStock decrements the stock backing one cart line, failing when the
// remaining stock cannot cover it.
func (s *Service) takeStock(tx *gorm.DB, item models.CartItem) error {
	var (
		taken bool
		err   error
	)
	if item.VariantID != nil {
		taken, err = s.products.DecrementVariantStockTx(tx, *item.VariantID, item.Quantity)
	} else {
		taken, err = s.products.DecrementAvailableQuantityTx(tx, item.ProductID, item.Quantity)
	}
	if err != nil {
		return err
	}
	if !taken {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("insufficient stock for %s", item.ProductTitle))
	}
	return nil
}

// uniqueOrderNumber generates an order number not yet taken. The unique
// index on orders.order_number remains the final arbiter.
func (s *Service) uniqueOrderNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := orders.NewOrderNumber()
		if err != nil {
			return "", err
		}
		exists, err := s.orders.OrderNumberExistsTx(tx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("order number space exhausted after %d attempts", maxNumberAttempts)
}

type sellerGroup struct {
	sellerID uuid.UUID
	items    []models.CartItem
}

// partitionBySeller splits cart lines into per-seller groups, preserving
// the order sellers first appear in the cart.
func partitionBySeller(items []models.CartItem) []sellerGroup {
	index := make(map[uuid.UUID]int, len(items))
	var groups []sellerGroup
	for _, item := range items {
		i, ok := index[item.SellerID]
		if !ok {
			i = len(groups)
			index[item.SellerID] = i
			groups = append(groups, sellerGroup{sellerID: item.SellerID})
		}
		groups[i].items = append(groups[i].items, item)
	}
	return groups
}
