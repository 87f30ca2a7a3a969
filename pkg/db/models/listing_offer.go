package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ListingOffer is one row in the offer ledger. Exactly one offer per
// (listing, user); status moves pending -> accepted|rejected and never back.
type ListingOffer struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingKind  enums.ListingKind `gorm:"column:listing_kind;type:text;not null;uniqueIndex:ux_listing_offers_listing_user"`
	ListingID    uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:ux_listing_offers_listing_user"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_listing_offers_listing_user"`
	PriceKurus   int64             `gorm:"column:price_kurus;not null"`
	Currency     enums.Currency    `gorm:"column:currency;type:text;not null;default:'TRY'"`
	Message      *string           `gorm:"column:message"`
	DeliveryDays int               `gorm:"column:delivery_days;not null;default:0"`
	Status       enums.OfferStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DecidedAt    *time.Time        `gorm:"column:decided_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
