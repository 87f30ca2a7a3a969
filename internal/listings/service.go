package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ActivationResult reports the window computed on an activation edge.
type ActivationResult struct {
	ActivatedAt      time.Time
	AutoDeactivateAt time.Time
}

// Service owns the listing activation lifecycle. Every activation, including
// re-activating an already-active listing, restarts the deactivation window.
type Service struct {
	products           *ProductRepository
	productionListings *ProductionListingRepository
	tx                 txRunner
	outbox             outboxEmitter
	logg               *logger.Logger
	activeWindow       time.Duration
	now                func() time.Time
}

// NewService constructs the lifecycle service.
func NewService(
	products *ProductRepository,
	productionListings *ProductionListingRepository,
	tx txRunner,
	emitter outboxEmitter,
	logg *logger.Logger,
	activeWindow time.Duration,
) (*Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if productionListings == nil {
		return nil, fmt.Errorf("production listing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if activeWindow <= 0 {
		return nil, fmt.Errorf("active window must be positive")
	}
	return &Service{
		products:           products,
		productionListings: productionListings,
		tx:                 tx,
		outbox:             emitter,
		logg:               logg,
		activeWindow:       activeWindow,
		now:                time.Now,
	}, nil
}

// WithNow swaps the clock. Tests use it to pin temporal behavior.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

type listingHead struct {
	producerID uuid.UUID
	title      string
	isActive   bool
}

func (s *Service) loadHead(ctx context.Context, kind enums.ListingKind, id uuid.UUID) (*listingHead, error) {
	switch kind {
	case enums.ListingKindProduct:
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return nil, mapLookupErr(err)
		}
		return &listingHead{producerID: p.ProducerID, title: p.Title, isActive: p.IsActive}, nil
	case enums.ListingKindProductionListing:
		l, err := s.productionListings.FindByID(ctx, id)
		if err != nil {
			return nil, mapLookupErr(err)
		}
		return &listingHead{producerID: l.ProducerID, title: l.Title, isActive: l.IsActive}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing kind")
	}
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading listing")
}

// Activate restarts the listing's deactivation window. Only the owner may
// call it. Re-activation of an active listing is not an error and extends
// the window from now.
func (s *Service) Activate(ctx context.Context, kind enums.ListingKind, listingID, actorID uuid.UUID) (*ActivationResult, error) {
	head, err := s.loadHead(ctx, kind, listingID)
	if err != nil {
		return nil, err
	}
	if head.producerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner may activate it")
	}

	at := s.now().UTC()
	deadline := at.Add(s.activeWindow)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		switch kind {
		case enums.ListingKindProduct:
			if err := s.products.ActivateTx(tx, listingID, at, deadline); err != nil {
				return err
			}
		default:
			if err := s.productionListings.ActivateTx(tx, listingID, at, deadline); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingActivated,
			AggregateType: enums.AggregateForListingKind(kind),
			AggregateID:   listingID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "producer"},
			Data: payloads.ListingActivatedEvent{
				ListingID:        listingID,
				ListingKind:      kind,
				ProducerID:       head.producerID,
				ActivatedAt:      at,
				AutoDeactivateAt: deadline,
			},
			Version:    1,
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activating listing")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"listing_id":         listingID.String(),
			"listing_kind":       kind,
			"auto_deactivate_at": deadline,
		})
		s.logg.Info(logCtx, "listing activated")
	}
	return &ActivationResult{ActivatedAt: at, AutoDeactivateAt: deadline}, nil
}

// Deactivate turns the listing off ahead of its deadline. Owner only.
func (s *Service) Deactivate(ctx context.Context, kind enums.ListingKind, listingID, actorID uuid.UUID) error {
	head, err := s.loadHead(ctx, kind, listingID)
	if err != nil {
		return err
	}
	if head.producerID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner may deactivate it")
	}
	if !head.isActive {
		return nil
	}

	at := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		switch kind {
		case enums.ListingKindProduct:
			_, err := s.products.DeactivateTx(tx, listingID, at)
			return err
		default:
			_, err := s.productionListings.DeactivateTx(tx, listingID, at)
			return err
		}
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating listing")
	}
	return nil
}
