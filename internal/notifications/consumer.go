package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/idempotency"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
)

const domainNotificationConsumer = "domain-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and materializes in-app notification rows
// for the affected users.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the domain notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	handled, err := c.handle(ctx, eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if !handled {
		c.logg.Info(logCtx, "event type carries no notification")
	}
	return processResult{ack: true}
}

// handle builds the notifications for one event. The boolean reports whether
// the event type maps to any notification at all.
func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (bool, error) {
	switch eventType {
	case enums.EventListingAutoDeactivated:
		var p payloads.ListingAutoDeactivatedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.ProducerID,
			Type:    enums.NotificationTypeListingAutoDeactivated,
			Title:   "İlanınız yayından kaldırıldı",
			Message: fmt.Sprintf("%q ilanınız 14 günlük yayın süresi dolduğu için pasife alındı.", p.Title),
			Link:    listingLink(p.ListingKind, p.ListingID),
		})

	case enums.EventListingDeactivationReminder:
		var p payloads.ListingDeactivationReminderEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.ProducerID,
			Type:    enums.NotificationTypeListingDeactivationReminder,
			Title:   "İlanınızın süresi dolmak üzere",
			Message: fmt.Sprintf("%q ilanınızın yayından kalkmasına %d gün kaldı. Süreyi uzatmak için ilanı yeniden aktifleştirin.", p.Title, p.DaysLeft),
			Link:    listingLink(p.ListingKind, p.ListingID),
		})

	case enums.EventListingLiked:
		var p payloads.ListingLikedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.ProducerID,
			Type:    enums.NotificationTypeListingLiked,
			Title:   "İlanınız beğenildi",
			Message: fmt.Sprintf("%q ilanınız bir kullanıcı tarafından beğenildi.", p.Title),
			Link:    listingLink(p.ListingKind, p.ListingID),
		})

	case enums.EventListingCommented:
		var p payloads.ListingCommentedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.ProducerID,
			Type:    enums.NotificationTypeListingCommented,
			Title:   "İlanınıza yorum yapıldı",
			Message: fmt.Sprintf("%q ilanınıza yeni bir yorum geldi.", p.Title),
			Link:    listingLink(p.ListingKind, p.ListingID),
		})

	case enums.EventOfferReceived:
		var p payloads.OfferReceivedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.ProducerID,
			Type:    enums.NotificationTypeOfferReceived,
			Title:   "Yeni teklif aldınız",
			Message: fmt.Sprintf("%q ilanınıza %s tutarında bir teklif geldi.", p.Title, formatKurus(p.PriceKurus, p.Currency)),
			Link:    listingLink(p.ListingKind, p.ListingID),
		})

	case enums.EventOfferDecided:
		var p payloads.OfferDecidedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		title := "Teklifiniz kabul edildi"
		if p.Status == enums.OfferStatusRejected {
			title = "Teklifiniz reddedildi"
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.OfferedBy,
			Type:    enums.NotificationTypeOfferDecided,
			Title:   title,
			Message: fmt.Sprintf("%q ilanına verdiğiniz teklif %s.", p.Title, decisionLabel(p.Status)),
			Link:    listingLink(p.ListingKind, p.ListingID),
		})

	case enums.EventOrderInteractionRecorded:
		var p payloads.OrderInteractionRecordedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.ProducerID,
			Type:    enums.NotificationTypeOrderReceived,
			Title:   "Yeni sipariş aldınız",
			Message: fmt.Sprintf("%q ürününüze %d adetlik bir sipariş geldi.", p.Title, p.Quantity),
			Link:    listingLink(enums.ListingKindProduct, p.ProductID),
		})

	case enums.EventOrderCreated:
		var p payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		for _, ref := range p.OrderIDs {
			err := c.repo.Create(ctx, &models.Notification{
				UserID:  ref.SellerID,
				Type:    enums.NotificationTypeOrderReceived,
				Title:   "Yeni sipariş aldınız",
				Message: fmt.Sprintf("%s numaralı yeni bir sipariş aldınız.", ref.OrderNumber),
				Link:    orderLink(ref.OrderID),
			})
			if err != nil {
				return true, err
			}
		}
		return true, nil

	case enums.EventOrderStatusChanged:
		var p payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.BuyerID,
			Type:    enums.NotificationTypeOrderStatusChanged,
			Title:   "Sipariş durumunuz güncellendi",
			Message: fmt.Sprintf("%s numaralı siparişinizin durumu %q olarak güncellendi.", p.OrderNumber, p.To),
			Link:    orderLink(p.OrderID),
		})

	case enums.EventOrderCancelled:
		var p payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return true, err
		}
		return true, c.repo.Create(ctx, &models.Notification{
			UserID:  p.SellerID,
			Type:    enums.NotificationTypeOrderStatusChanged,
			Title:   "Sipariş iptal edildi",
			Message: fmt.Sprintf("%s numaralı sipariş alıcı tarafından iptal edildi.", p.OrderNumber),
			Link:    orderLink(p.OrderID),
		})

	default:
		// listing_activated and future event types are not user-facing
		return false, nil
	}
}

func listingLink(kind enums.ListingKind, id uuid.UUID) *string {
	link := fmt.Sprintf("/products/%s", id)
	if kind == enums.ListingKindProductionListing {
		link = fmt.Sprintf("/production-listings/%s", id)
	}
	return &link
}

func orderLink(id uuid.UUID) *string {
	link := fmt.Sprintf("/orders/%s", id)
	return &link
}

func decisionLabel(status enums.OfferStatus) string {
	if status == enums.OfferStatusAccepted {
		return "kabul edildi"
	}
	return "reddedildi"
}

func formatKurus(amount int64, currency enums.Currency) string {
	return fmt.Sprintf("%d,%02d %s", amount/100, amount%100, currency)
}
