package enums

import "fmt"

// OfferStatus tracks the state of an offer placed on a production listing.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusPending,
	OfferStatusAccepted,
	OfferStatusRejected,
}

// IsValid reports whether the value is a known OfferStatus.
func (s OfferStatus) IsValid() bool {
	for _, candidate := range validOfferStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsDecision reports whether the value is a terminal owner decision.
func (s OfferStatus) IsDecision() bool {
	return s == OfferStatusAccepted || s == OfferStatusRejected
}

// ParseOfferStatus converts raw input into an OfferStatus.
func ParseOfferStatus(value string) (OfferStatus, error) {
	for _, candidate := range validOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer status %q", value)
}
