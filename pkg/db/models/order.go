package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

// Order is one per-seller order produced by checkout consolidation.
// Addresses are frozen snapshots taken at checkout time.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber           string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	BuyerID               uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID              uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Currency              enums.Currency      `gorm:"column:currency;type:text;not null;default:'TRY'"`
	ShippingAddress       *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress        *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json"`
	TotalKurus            int64               `gorm:"column:total_kurus;not null"`
	EstimatedDeliveryDate time.Time           `gorm:"column:estimated_delivery_date;not null"`
	ActualDeliveryDate    *time.Time          `gorm:"column:actual_delivery_date"`
	CancelledAt           *time.Time          `gorm:"column:cancelled_at"`
	Notes                 *string             `gorm:"column:notes"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
