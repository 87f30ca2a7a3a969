package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

// ProductionListing represents a manufacturing-capacity listing on the job
// board. It shares the activation lifecycle with Product but carries no
// per-variant stock; buyers engage with it through offers.
type ProductionListing struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID           uuid.UUID                  `gorm:"column:producer_id;type:uuid;not null;index"`
	Title                string                     `gorm:"column:title;not null"`
	Description          *string                    `gorm:"column:description"`
	Category             string                     `gorm:"column:category;not null"`
	MonthlyCapacity      int                        `gorm:"column:monthly_capacity;not null;default:0"`
	MinOrderQuantity     int                        `gorm:"column:min_order_quantity;not null;default:1"`
	UnitPriceKurus       *int64                     `gorm:"column:unit_price_kurus"`
	Materials            pq.StringArray             `gorm:"column:materials;type:text[]"`
	Currency             enums.Currency             `gorm:"column:currency;type:text;not null;default:'TRY'"`
	TotalLikes           int                        `gorm:"column:total_likes;not null;default:0"`
	TotalComments        int                        `gorm:"column:total_comments;not null;default:0"`
	TotalOffers          int                        `gorm:"column:total_offers;not null;default:0"`
	TotalViews           int                        `gorm:"column:total_views;not null;default:0"`
	NotificationSettings types.NotificationSettings `gorm:"column:notification_settings;type:jsonb;serializer:json"`
	ListingLifecycle     `gorm:"embedded"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
