package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeListingAutoDeactivated      NotificationType = "listing_auto_deactivated"
	NotificationTypeListingDeactivationReminder NotificationType = "listing_deactivation_reminder"
	NotificationTypeListingLiked                NotificationType = "listing_liked"
	NotificationTypeListingCommented            NotificationType = "listing_commented"
	NotificationTypeOfferReceived               NotificationType = "offer_received"
	NotificationTypeOfferDecided                NotificationType = "offer_decided"
	NotificationTypeOrderReceived               NotificationType = "order_received"
	NotificationTypeOrderStatusChanged          NotificationType = "order_status_changed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeListingAutoDeactivated,
	NotificationTypeListingDeactivationReminder,
	NotificationTypeListingLiked,
	NotificationTypeListingCommented,
	NotificationTypeOfferReceived,
	NotificationTypeOfferDecided,
	NotificationTypeOrderReceived,
	NotificationTypeOrderStatusChanged,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
