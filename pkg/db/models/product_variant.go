package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a (size, color) stock/price tuple. Stock is tracked per
// variant; products without variants fall back to AvailableQuantity.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Size       string    `gorm:"column:size;not null"`
	Color      string    `gorm:"column:color;not null"`
	Stock      int       `gorm:"column:stock;not null;default:0"`
	PriceKurus int64     `gorm:"column:price_kurus;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
