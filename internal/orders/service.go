package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
	"github.com/uretimhub/uretimhub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the order lifecycle after checkout. Sellers move their
// orders forward through the fulfilment states; buyers may only cancel,
// and only while the order is still pending.
type Service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxEmitter
	logg   *logger.Logger
	now    func() time.Time
}

// NewService constructs the order service.
func NewService(repo *Repository, tx txRunner, emitter outboxEmitter, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Service{repo: repo, tx: tx, outbox: emitter, logg: logg, now: time.Now}, nil
}

// WithNow swaps the clock.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get loads one order. Only the two parties of the order may read it.
func (s *Service) Get(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actorID && order.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// ListForBuyer returns the buyer's orders.
func (s *Service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	orders, next, err := s.repo.ListByBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return orders, next, nil
}

// ListForSeller returns the seller's orders.
func (s *Service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	orders, next, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return orders, next, nil
}

// AdvanceStatus moves an order forward on behalf of its seller. Delivery
// stamps the actual delivery date. The conditional update keeps concurrent
// transitions from racing past each other.
func (s *Service) AdvanceStatus(ctx context.Context, orderID, sellerID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if target == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation is not a seller transition")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
	}
	if !order.Status.CanAdvanceTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	var deliveredAt *time.Time
	if target == enums.OrderStatusDelivered {
		at := s.now().UTC()
		deliveredAt = &at
	}

	from := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.AdvanceStatusTx(tx, order.ID, from, target, deliveredAt)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: sellerID, Role: "seller"},
			Version:       1,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.BuyerID,
				SellerID:    order.SellerID,
				From:        from,
				To:          target,
				DeliveredAt: deliveredAt,
			},
		})
	})
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			return nil, domainErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advancing order status")
	}

	order.Status = target
	order.ActualDeliveryDate = deliveredAt
	return order, nil
}

// Cancel lets the buyer abandon a pending order. Cancellation is the only
// buyer-driven transition and is final.
func (s *Service) Cancel(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled")
	}

	at := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cancelled, err := s.repo.CancelTx(tx, order.ID, at)
		if err != nil {
			return err
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: "buyer"},
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.BuyerID,
				SellerID:    order.SellerID,
				CancelledAt: at,
				Reason:      reason,
			},
		})
	})
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			return nil, domainErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &at
	return order, nil
}

func (s *Service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}
