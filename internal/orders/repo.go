package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/pagination"
)

// Repository persists orders and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// InsertTx persists the order together with its items.
func (r *Repository) InsertTx(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

// OrderNumberExistsTx reports whether an order already carries the number.
func (r *Repository) OrderNumberExistsTx(tx *gorm.DB, number string) (bool, error) {
	var count int64
	err := tx.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID loads the order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByBuyer returns the buyer's orders newest-first under cursor
// pagination.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, params)
}

// ListBySeller returns the seller's orders newest-first under cursor
// pagination.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.list(ctx, "seller_id = ?", sellerID, params)
}

func (r *Repository) list(ctx context.Context, cond string, party uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where(cond, party).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, next, nil
}

// AdvanceStatusTx moves the order from the expected status to target in one
// conditional statement. Returns false when the stored status no longer
// matches from.
func (r *Repository) AdvanceStatusTx(tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if deliveredAt != nil {
		updates["actual_delivery_date"] = *deliveredAt
	}
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CancelTx cancels the order, but only while it is still pending.
func (r *Repository) CancelTx(tx *gorm.DB, orderID uuid.UUID, at time.Time) (bool, error) {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
