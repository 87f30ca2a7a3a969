package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ListingComment is one row in the comment ledger. One comment per
// (listing, user); an optional rating feeds the listing's rating mean.
type ListingComment struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingKind enums.ListingKind `gorm:"column:listing_kind;type:text;not null;uniqueIndex:ux_listing_comments_listing_user"`
	ListingID   uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:ux_listing_comments_listing_user"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_listing_comments_listing_user"`
	Body        string            `gorm:"column:body;type:text;not null"`
	Rating      *int              `gorm:"column:rating"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
