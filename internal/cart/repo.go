package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
)

// Repository persists carts and their lines.
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

// FindByBuyer loads the buyer's cart with its lines, or nil when the buyer
// has no cart yet.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&cart, "buyer_id = ?", buyerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create persists a fresh cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// FindLineTx returns the line matching (product, variant) in the cart, or
// nil. A nil variantID matches only lines without a variant.
func (r *Repository) FindLineTx(tx *gorm.DB, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	q := tx.Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	var item models.CartItem
	if err := q.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindLineByIDTx loads one line of the cart, or nil.
func (r *Repository) FindLineByIDTx(tx *gorm.DB, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := tx.First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// InsertLineTx appends a line.
func (r *Repository) InsertLineTx(tx *gorm.DB, item models.CartItem) error {
	return tx.Create(&item).Error
}

// UpdateLineQuantityTx rewrites a line's quantity and total.
func (r *Repository) UpdateLineQuantityTx(tx *gorm.DB, itemID uuid.UUID, quantity int, totalKurus int64) error {
	return tx.Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"quantity":    quantity,
			"total_kurus": totalKurus,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// DeleteLineTx removes one line. Returns false when the line was absent.
func (r *Repository) DeleteLineTx(tx *gorm.DB, cartID, itemID uuid.UUID) (bool, error) {
	res := tx.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteLinesTx removes every line of the cart.
func (r *Repository) DeleteLinesTx(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// CommitTx recomputes the cart aggregates from its lines and bumps the
// version, but only when the stored version still matches expectedVersion.
// Returns false on a version mismatch.
func (r *Repository) CommitTx(tx *gorm.DB, cartID uuid.UUID, expectedVersion int64) (bool, error) {
	res := tx.Exec(`
		UPDATE carts SET
			version = version + 1,
			item_count = (SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE cart_items.cart_id = carts.id),
			total_kurus = (SELECT COALESCE(SUM(total_kurus), 0) FROM cart_items WHERE cart_items.cart_id = carts.id),
			updated_at = ?
		WHERE id = ? AND version = ?`,
		time.Now().UTC(), cartID, expectedVersion)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
