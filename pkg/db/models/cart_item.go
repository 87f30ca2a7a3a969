package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one cart line. Lines are keyed by (product, size, color);
// adding the same key again merges quantities instead of appending.
type CartItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	SellerID       uuid.UUID  `gorm:"column:seller_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Size           *string    `gorm:"column:size"`
	Color          *string    `gorm:"column:color"`
	ProductTitle   string     `gorm:"column:product_title;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceKurus int64      `gorm:"column:unit_price_kurus;not null"`
	TotalKurus     int64      `gorm:"column:total_kurus;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
