package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ListingLike is one row in the like ledger. A user appears at most once per
// listing; toggling removes the row.
type ListingLike struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingKind enums.ListingKind `gorm:"column:listing_kind;type:text;not null;uniqueIndex:ux_listing_likes_listing_user"`
	ListingID   uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:ux_listing_likes_listing_user"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_listing_likes_listing_user"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
