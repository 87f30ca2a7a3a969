package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ListingOrder is one row in the direct-order ledger on a product. It is
// recorded when a buyer orders from the listing page itself, outside the
// cart checkout path.
type ListingOrder struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID  *uuid.UUID        `gorm:"column:variant_id;type:uuid"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Quantity   int               `gorm:"column:quantity;not null"`
	TotalKurus int64             `gorm:"column:total_kurus;not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
