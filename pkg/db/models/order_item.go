package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the snapshot of one cart line inside a seller order.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductTitle   string     `gorm:"column:product_title;not null"`
	Size           *string    `gorm:"column:size"`
	Color          *string    `gorm:"column:color"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceKurus int64      `gorm:"column:unit_price_kurus;not null"`
	TotalKurus     int64      `gorm:"column:total_kurus;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
