package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ListingAutoDeactivatedEvent is emitted when the sweep expires a listing.
type ListingAutoDeactivatedEvent struct {
	ListingID     uuid.UUID         `json:"listingId"`
	ListingKind   enums.ListingKind `json:"listingKind"`
	ProducerID    uuid.UUID         `json:"producerId"`
	Title         string            `json:"title"`
	DeactivatedAt time.Time         `json:"deactivatedAt"`
}

// ListingDeactivationReminderEvent warns a producer their listing is about
// to expire.
type ListingDeactivationReminderEvent struct {
	ListingID        uuid.UUID         `json:"listingId"`
	ListingKind      enums.ListingKind `json:"listingKind"`
	ProducerID       uuid.UUID         `json:"producerId"`
	Title            string            `json:"title"`
	AutoDeactivateAt time.Time         `json:"autoDeactivateAt"`
	DaysLeft         int               `json:"daysLeft"`
}

// ListingActivatedEvent records an activation edge, including re-activation
// of an already-active listing.
type ListingActivatedEvent struct {
	ListingID        uuid.UUID         `json:"listingId"`
	ListingKind      enums.ListingKind `json:"listingKind"`
	ProducerID       uuid.UUID         `json:"producerId"`
	ActivatedAt      time.Time         `json:"activatedAt"`
	AutoDeactivateAt time.Time         `json:"autoDeactivateAt"`
}

// ListingLikedEvent is emitted when a like toggles on (never on unlike).
type ListingLikedEvent struct {
	ListingID   uuid.UUID         `json:"listingId"`
	ListingKind enums.ListingKind `json:"listingKind"`
	ProducerID  uuid.UUID         `json:"producerId"`
	Title       string            `json:"title"`
	LikedBy     uuid.UUID         `json:"likedBy"`
}

// ListingCommentedEvent is emitted when a comment lands on a listing.
type ListingCommentedEvent struct {
	ListingID   uuid.UUID         `json:"listingId"`
	ListingKind enums.ListingKind `json:"listingKind"`
	ProducerID  uuid.UUID         `json:"producerId"`
	Title       string            `json:"title"`
	CommentID   uuid.UUID         `json:"commentId"`
	CommentedBy uuid.UUID         `json:"commentedBy"`
	Rating      *int              `json:"rating,omitempty"`
}

// OfferReceivedEvent notifies the listing owner of a new offer.
type OfferReceivedEvent struct {
	OfferID     uuid.UUID         `json:"offerId"`
	ListingID   uuid.UUID         `json:"listingId"`
	ListingKind enums.ListingKind `json:"listingKind"`
	ProducerID  uuid.UUID         `json:"producerId"`
	Title       string            `json:"title"`
	OfferedBy   uuid.UUID         `json:"offeredBy"`
	PriceKurus  int64             `json:"priceKurus"`
	Currency    enums.Currency    `json:"currency"`
}

// OfferDecidedEvent notifies the offer author of the owner's decision.
type OfferDecidedEvent struct {
	OfferID     uuid.UUID         `json:"offerId"`
	ListingID   uuid.UUID         `json:"listingId"`
	ListingKind enums.ListingKind `json:"listingKind"`
	Title       string            `json:"title"`
	OfferedBy   uuid.UUID         `json:"offeredBy"`
	Status      enums.OfferStatus `json:"status"`
	DecidedAt   time.Time         `json:"decidedAt"`
}

// OrderInteractionRecordedEvent is emitted when a buyer orders from the
// listing page directly.
type OrderInteractionRecordedEvent struct {
	ProductID  uuid.UUID  `json:"productId"`
	ProducerID uuid.UUID  `json:"producerId"`
	Title      string     `json:"title"`
	OrderedBy  uuid.UUID  `json:"orderedBy"`
	VariantID  *uuid.UUID `json:"variantId,omitempty"`
	Quantity   int        `json:"quantity"`
	TotalKurus int64      `json:"totalKurus"`
}

// OrderCreatedEvent signals one checkout split across sellers.
type OrderCreatedEvent struct {
	BuyerID  uuid.UUID  `json:"buyerId"`
	OrderIDs []OrderRef `json:"orders"`
}

// OrderRef ties an order id to its seller for fan-out.
type OrderRef struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	SellerID    uuid.UUID `json:"sellerId"`
	TotalKurus  int64     `json:"totalKurus"`
}

// OrderStatusChangedEvent is emitted on every seller-driven transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	BuyerID     uuid.UUID         `json:"buyerId"`
	SellerID    uuid.UUID         `json:"sellerId"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	DeliveredAt *time.Time        `json:"deliveredAt,omitempty"`
}

// OrderCancelledEvent is emitted when a buyer cancels a pending order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	BuyerID     uuid.UUID `json:"buyerId"`
	SellerID    uuid.UUID `json:"sellerId"`
	CancelledAt time.Time `json:"cancelledAt"`
	Reason      string    `json:"reason,omitempty"`
}
