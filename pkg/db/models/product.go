package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

// Product represents a catalog listing owned by a producer. Engagement
// counters are derived from the interaction ledger tables and must always
// equal the corresponding row counts.
type Product struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID           uuid.UUID                  `gorm:"column:producer_id;type:uuid;not null;index"`
	Title                string                     `gorm:"column:title;not null"`
	Description          *string                    `gorm:"column:description"`
	Category             string                     `gorm:"column:category;not null"`
	PriceKurus           int64                      `gorm:"column:price_kurus;not null"`
	Currency             enums.Currency             `gorm:"column:currency;type:text;not null;default:'TRY'"`
	AvailableQuantity    int                        `gorm:"column:available_quantity;not null;default:0"`
	TotalLikes           int                        `gorm:"column:total_likes;not null;default:0"`
	TotalComments        int                        `gorm:"column:total_comments;not null;default:0"`
	TotalOffers          int                        `gorm:"column:total_offers;not null;default:0"`
	TotalOrders          int                        `gorm:"column:total_orders;not null;default:0"`
	TotalViews           int                        `gorm:"column:total_views;not null;default:0"`
	TotalRevenueKurus    int64                      `gorm:"column:total_revenue_kurus;not null;default:0"`
	Rating               float64                    `gorm:"column:rating;not null;default:0"`
	TotalRatings         int                        `gorm:"column:total_ratings;not null;default:0"`
	MediaURLs            pq.StringArray             `gorm:"column:media_urls;type:text[]"`
	NotificationSettings types.NotificationSettings `gorm:"column:notification_settings;type:jsonb;serializer:json"`
	ListingLifecycle     `gorm:"embedded"`
	Variants             []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
