package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// Cart is the single mutable cart per buyer. Version implements optimistic
// concurrency: every mutation commits only when the stored version still
// matches the one the mutation was computed from.
type Cart struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID    uuid.UUID      `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:ux_carts_buyer"`
	Version    int64          `gorm:"column:version;not null;default:0"`
	Currency   enums.Currency `gorm:"column:currency;type:text;not null;default:'TRY'"`
	ItemCount  int            `gorm:"column:item_count;not null;default:0"`
	TotalKurus int64          `gorm:"column:total_kurus;not null;default:0"`
	Items      []CartItem     `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
