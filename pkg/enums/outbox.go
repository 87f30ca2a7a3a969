package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateProduct           OutboxAggregateType = "product"
	AggregateProductionListing OutboxAggregateType = "production_listing"
	AggregateCart              OutboxAggregateType = "cart"
	AggregateOrder             OutboxAggregateType = "order"
	AggregateOffer             OutboxAggregateType = "offer"
	AggregateNotification      OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateProduct,
	AggregateProductionListing,
	AggregateCart,
	AggregateOrder,
	AggregateOffer,
	AggregateNotification,
}

// AggregateForListingKind maps a listing kind to its aggregate type.
func AggregateForListingKind(kind ListingKind) OutboxAggregateType {
	if kind == ListingKindProductionListing {
		return AggregateProductionListing
	}
	return AggregateProduct
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventListingAutoDeactivated      OutboxEventType = "listing_auto_deactivated"
	EventListingDeactivationReminder OutboxEventType = "listing_deactivation_reminder"
	EventListingActivated            OutboxEventType = "listing_activated"
	EventListingLiked                OutboxEventType = "listing_liked"
	EventListingCommented            OutboxEventType = "listing_commented"
	EventOfferReceived               OutboxEventType = "offer_received"
	EventOfferDecided                OutboxEventType = "offer_decided"
	EventOrderInteractionRecorded    OutboxEventType = "order_interaction_recorded"
	EventOrderCreated                OutboxEventType = "order_created"
	EventOrderStatusChanged          OutboxEventType = "order_status_changed"
	EventOrderCancelled              OutboxEventType = "order_cancelled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventListingAutoDeactivated,
	EventListingDeactivationReminder,
	EventListingActivated,
	EventListingLiked,
	EventListingCommented,
	EventOfferReceived,
	EventOfferDecided,
	EventOrderInteractionRecorded,
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderCancelled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
