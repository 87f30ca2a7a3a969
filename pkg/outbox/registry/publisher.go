package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/config"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.DomainTopic

	// Listing events carry either the product or production_listing
	// aggregate; Resolve validates the row's aggregate type instead of
	// pinning one here.
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventListingAutoDeactivated,
			AggregateType:  enums.AggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ListingAutoDeactivatedEvent{} },
		},
		{
			EventType:      enums.EventListingDeactivationReminder,
			AggregateType:  enums.AggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ListingDeactivationReminderEvent{} },
		},
		{
			EventType:      enums.EventListingActivated,
			AggregateType:  enums.AggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ListingActivatedEvent{} },
		},
		{
			EventType:      enums.EventListingLiked,
			AggregateType:  enums.AggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ListingLikedEvent{} },
		},
		{
			EventType:      enums.EventListingCommented,
			AggregateType:  enums.AggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ListingCommentedEvent{} },
		},
		{
			EventType:      enums.EventOfferReceived,
			AggregateType:  enums.AggregateOffer,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OfferReceivedEvent{} },
		},
		{
			EventType:      enums.EventOfferDecided,
			AggregateType:  enums.AggregateOffer,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OfferDecidedEvent{} },
		},
		{
			EventType:      enums.EventOrderInteractionRecorded,
			AggregateType:  enums.AggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OrderInteractionRecordedEvent{} },
		},
		{
			EventType:      enums.EventOrderCreated,
			AggregateType:  enums.AggregateCart,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventOrderStatusChanged,
			AggregateType:  enums.AggregateOrder,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OrderStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventOrderCancelled,
			AggregateType:  enums.AggregateOrder,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OrderCancelledEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if !event.AggregateType.IsValid() {
		return nil, NewNonRetryableError(fmt.Errorf("invalid aggregate type %s", event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
