package interactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/internal/listings"
	dbpkg "github.com/uretimhub/uretimhub-backend/pkg/db"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OfferInput is the validated payload for a new offer.
type OfferInput struct {
	PriceKurus   int64
	Currency     enums.Currency
	Message      *string
	DeliveryDays int
}

// OrderInput is the validated payload for a direct order on a product.
type OrderInput struct {
	VariantID *uuid.UUID
	Quantity  int
}

// LikeResult reports the toggle outcome.
type LikeResult struct {
	Liked      bool
	TotalLikes int64
}

// Service owns the interaction ledger. Every mutation recomputes the
// listing's counters from the ledger inside the same transaction, so the
// counters always equal the ledger cardinality.
type Service struct {
	repo               *Repository
	products           *listings.ProductRepository
	productionListings *listings.ProductionListingRepository
	tx                 txRunner
	outbox             outboxEmitter
	logg               *logger.Logger
	now                func() time.Time
}

// NewService constructs the interaction service.
func NewService(
	repo *Repository,
	products *listings.ProductRepository,
	productionListings *listings.ProductionListingRepository,
	tx txRunner,
	emitter outboxEmitter,
	logg *logger.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("interaction repository required")
	}
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
	return &Service{
		repo:               repo,
		products:           products,
		productionListings: productionListings,
		tx:                 tx,
		outbox:             emitter,
		logg:               logg,
		now:                time.Now,
	}, nil
}

// WithNow swaps the clock.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

type listingMeta struct {
	producerID uuid.UUID
	title      string
	isActive   bool
	settings   types.NotificationSettings
}

func (s *Service) loadMeta(ctx context.Context, kind enums.ListingKind, id uuid.UUID) (*listingMeta, error) {
	switch kind {
	case enums.ListingKindProduct:
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return nil, mapLookupErr(err)
		}
		return &listingMeta{producerID: p.ProducerID, title: p.Title, isActive: p.IsActive, settings: p.NotificationSettings}, nil
	case enums.ListingKindProductionListing:
		l, err := s.productionListings.FindByID(ctx, id)
		if err != nil {
			return nil, mapLookupErr(err)
		}
		return &listingMeta{producerID: l.ProducerID, title: l.Title, isActive: l.IsActive, settings: l.NotificationSettings}, nil
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

func (s *Service) recountLikes(tx *gorm.DB, kind enums.ListingKind, id uuid.UUID) error {
	if kind == enums.ListingKindProduct {
		return s.products.RecountLikesTx(tx, id)
	}
	return s.productionListings.RecountLikesTx(tx, id)
}

func (s *Service) recountComments(tx *gorm.DB, kind enums.ListingKind, id uuid.UUID) error {
	if kind == enums.ListingKindProduct {
		return s.products.RecountCommentsTx(tx, id)
	}
	return s.productionListings.RecountCommentsTx(tx, id)
}

func (s *Service) recountOffers(tx *gorm.DB, kind enums.ListingKind, id uuid.UUID) error {
	if kind == enums.ListingKindProduct {
		return s.products.RecountOffersTx(tx, id)
	}
	return s.productionListings.RecountOffersTx(tx, id)
}

// ToggleLike flips the user's like on a listing. Repeated toggles are never
// an error; producers may not like their own listing.
func (s *Service) ToggleLike(ctx context.Context, kind enums.ListingKind, listingID, userID uuid.UUID) (*LikeResult, error) {
	meta, err := s.loadMeta(ctx, kind, listingID)
	if err != nil {
		return nil, err
	}
	if meta.producerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "producers cannot like their own listing")
	}

	existing, err := s.repo.FindLike(ctx, kind, listingID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading like")
	}

	liked := existing == nil
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if existing != nil {
			if err := s.repo.DeleteLikeTx(tx, kind, listingID, userID); err != nil {
				return err
			}
		} else {
			like := models.ListingLike{
				ID:          uuid.New(),
				ListingKind: kind,
				ListingID:   listingID,
				UserID:      userID,
			}
			if err := s.repo.InsertLikeTx(tx, like); err != nil {
				if dbpkg.IsUniqueViolation(err, "") {
					// lost a toggle race; the like is already there
					liked = false
					return s.recountLikes(tx, kind, listingID)
				}
				return err
			}
			if meta.settings.Likes {
				event := outbox.DomainEvent{
					EventType:     enums.EventListingLiked,
					AggregateType: enums.AggregateForListingKind(kind),
					AggregateID:   listingID,
					Actor:         &outbox.ActorRef{UserID: userID},
					Data: payloads.ListingLikedEvent{
						ListingID:   listingID,
						ListingKind: kind,
						ProducerID:  meta.producerID,
						Title:       meta.title,
						LikedBy:     userID,
					},
					Version: 1,
				}
				if err := s.outbox.Emit(ctx, tx, event); err != nil {
					return err
				}
			}
		}
		return s.recountLikes(tx, kind, listingID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggling like")
	}

	total, err := s.repo.CountLikes(ctx, kind, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting likes")
	}
	return &LikeResult{Liked: liked, TotalLikes: total}, nil
}

// AddComment appends one comment per (listing, user), with an optional
// 1..5 rating folded into the listing's rating mean.
func (s *Service) AddComment(ctx context.Context, kind enums.ListingKind, listingID, userID uuid.UUID, body string, rating *int) (*models.ListingComment, error) {
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body is required")
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	meta, err := s.loadMeta(ctx, kind, listingID)
	if err != nil {
		return nil, err
	}
	if meta.producerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "producers cannot comment on their own listing")
	}

	comment := &models.ListingComment{
		ID:          uuid.New(),
		ListingKind: kind,
		ListingID:   listingID,
		UserID:      userID,
		Body:        body,
		Rating:      rating,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.InsertCommentTx(tx, comment); err != nil {
			return err
		}
		if err := s.recountComments(tx, kind, listingID); err != nil {
			return err
		}
		if !meta.settings.Comments {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingCommented,
			AggregateType: enums.AggregateForListingKind(kind),
			AggregateID:   listingID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.ListingCommentedEvent{
				ListingID:   listingID,
				ListingKind: kind,
				ProducerID:  meta.producerID,
				Title:       meta.title,
				CommentID:   comment.ID,
				CommentedBy: userID,
				Rating:      rating,
			},
			Version: 1,
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already commented on this listing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding comment")
	}
	return comment, nil
}

// AddOffer records exactly one pending offer per (listing, user).
func (s *Service) AddOffer(ctx context.Context, kind enums.ListingKind, listingID, userID uuid.UUID, input OfferInput) (*models.ListingOffer, error) {
	if input.PriceKurus <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer price must be positive")
	}
	if input.Currency == "" {
		input.Currency = enums.CurrencyTRY
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	meta, err := s.loadMeta(ctx, kind, listingID)
	if err != nil {
		return nil, err
	}
	if meta.producerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "producers cannot make offers on their own listing")
	}

	offer := &models.ListingOffer{
		ID:           uuid.New(),
		ListingKind:  kind,
		ListingID:    listingID,
		UserID:       userID,
		PriceKurus:   input.PriceKurus,
		Currency:     input.Currency,
		Message:      input.Message,
		DeliveryDays: input.DeliveryDays,
		Status:       enums.OfferStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.InsertOfferTx(tx, offer); err != nil {
			return err
		}
		if err := s.recountOffers(tx, kind, listingID); err != nil {
			return err
		}
		if !meta.settings.Offers {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferReceived,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OfferReceivedEvent{
				OfferID:     offer.ID,
				ListingID:   listingID,
				ListingKind: kind,
				ProducerID:  meta.producerID,
				Title:       meta.title,
				OfferedBy:   userID,
				PriceKurus:  input.PriceKurus,
				Currency:    input.Currency,
			},
			Version: 1,
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an offer for this listing already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding offer")
	}
	return offer, nil
}

// DecideOffer lets the listing owner accept or reject a pending offer. The
// decision is final.
func (s *Service) DecideOffer(ctx context.Context, kind enums.ListingKind, listingID, offerID, actorID uuid.UUID, status enums.OfferStatus) error {
	if !status.IsDecision() {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer status must be accepted or rejected")
	}

	meta, err := s.loadMeta(ctx, kind, listingID)
	if err != nil {
		return err
	}
	if meta.producerID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner may decide offers")
	}

	offer, err := s.repo.FindOffer(ctx, kind, listingID, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading offer")
	}

	at := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		decided, err := s.repo.DecideOfferTx(tx, offerID, status, at)
		if err != nil {
			return err
		}
		if !decided {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "offer is already decided")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferDecided,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offerID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "producer"},
			Data: payloads.OfferDecidedEvent{
				OfferID:     offerID,
				ListingID:   listingID,
				ListingKind: kind,
				Title:       meta.title,
				OfferedBy:   offer.UserID,
				Status:      status,
				DecidedAt:   at,
			},
			Version:    1,
			OccurredAt: at,
		})
	})
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			return domainErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deciding offer")
	}
	return nil
}

// AddOrder records a direct order against an active product, taking stock
// with a conditional decrement so it can never go negative.
func (s *Service) AddOrder(ctx context.Context, productID, userID uuid.UUID, input OrderInput) (*models.ListingOrder, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByIDWithVariants(ctx, productID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	if product.ProducerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "producers cannot order their own product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not active")
	}

	unitPrice := product.PriceKurus
	if len(product.Variants) > 0 {
		if input.VariantID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant is required for this product")
		}
		variant, err := s.products.FindVariant(ctx, productID, *input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant")
		}
		unitPrice = variant.PriceKurus
	}

	order := &models.ListingOrder{
		ID:         uuid.New(),
		ProductID:  productID,
		VariantID:  input.VariantID,
		UserID:     userID,
		Quantity:   input.Quantity,
		TotalKurus: unitPrice * int64(input.Quantity),
		Status:     enums.OrderStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var taken bool
		var err error
		if input.VariantID != nil {
			taken, err = s.products.DecrementVariantStockTx(tx, *input.VariantID, input.Quantity)
		} else {
			taken, err = s.products.DecrementAvailableQuantityTx(tx, productID, input.Quantity)
		}
		if err != nil {
			return err
		}
		if !taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}
		if err := s.repo.InsertOrderTx(tx, order); err != nil {
			return err
		}
		if err := s.products.RecountOrdersTx(tx, productID); err != nil {
			return err
		}
		if !product.NotificationSettings.Orders {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderInteractionRecorded,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderInteractionRecordedEvent{
				ProductID:  productID,
				ProducerID: product.ProducerID,
				Title:      product.Title,
				OrderedBy:  userID,
				VariantID:  input.VariantID,
				Quantity:   input.Quantity,
				TotalKurus: order.TotalKurus,
			},
			Version: 1,
		})
	})
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			return nil, domainErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording order")
	}
	return order, nil
}
