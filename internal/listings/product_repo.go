package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ProductRepository wires product persistence, including the lifecycle
// queries the scheduler runs.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository builds a repository tied to the provided GORM DB.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// Kind implements LifecycleRepository.
func (r *ProductRepository) Kind() enums.ListingKind {
	return enums.ListingKindProduct
}

// Create persists the product with its variants.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads the product without associations.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDWithVariants loads the product and its variants.
func (r *ProductRepository) FindByIDWithVariants(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByProducer returns all products owned by the producer.
func (r *ProductRepository) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("producer_id = ?", producerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Save persists all changed fields of the product.
func (r *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ActivateTx stamps the activation edge and recomputes the deactivation
// deadline. Runs unconditionally so re-activating an active listing extends
// its window.
func (r *ProductRepository) ActivateTx(tx *gorm.DB, id uuid.UUID, at, deadline time.Time) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":          true,
			"last_activated_at":  at,
			"auto_deactivate_at": deadline,
			"deactivated_at":     nil,
		}).Error
}

// DeactivateTx implements LifecycleRepository.
func (r *ProductRepository) DeactivateTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":          false,
			"deactivated_at":     at,
			"auto_deactivate_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

// FindExpired implements LifecycleRepository.
func (r *ProductRepository) FindExpired(ctx context.Context, asOf time.Time, limit int) ([]ExpiringListing, error) {
	return r.findLifecycleRows(ctx, "auto_deactivate_at <= ?", []any{asOf}, limit)
}

// FindExpiringWithin implements LifecycleRepository.
func (r *ProductRepository) FindExpiringWithin(ctx context.Context, asOf, until time.Time, limit int) ([]ExpiringListing, error) {
	return r.findLifecycleRows(ctx, "auto_deactivate_at > ? AND auto_deactivate_at <= ?", []any{asOf, until}, limit)
}

func (r *ProductRepository) findLifecycleRows(ctx context.Context, cond string, args []any, limit int) ([]ExpiringListing, error) {
	var rows []models.Product
	q := r.db.WithContext(ctx).
		Where("is_active = ? AND auto_deactivate_enabled = ? AND auto_deactivate_at IS NOT NULL", true, true).
		Where(cond, args...).
		Order("auto_deactivate_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ExpiringListing, 0, len(rows))
	for _, p := range rows {
		if p.AutoDeactivateAt == nil {
			continue
		}
		out = append(out, ExpiringListing{
			ID:                   p.ID,
			Kind:                 enums.ListingKindProduct,
			ProducerID:           p.ProducerID,
			Title:                p.Title,
			AutoDeactivateAt:     *p.AutoDeactivateAt,
			NotificationSettings: p.NotificationSettings,
		})
	}
	return out, nil
}

// RecountLikesTx pins total_likes to the ledger cardinality.
func (r *ProductRepository) RecountLikesTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Exec(`UPDATE products SET total_likes = (
		SELECT COUNT(*) FROM listing_likes
		WHERE listing_kind = ? AND listing_id = ?
	) WHERE id = ?`, enums.ListingKindProduct, id, id).Error
}

// RecountCommentsTx pins total_comments plus the rating aggregate to the
// comment ledger.
func (r *ProductRepository) RecountCommentsTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Exec(`UPDATE products SET total_comments = (
		SELECT COUNT(*) FROM listing_comments
		WHERE listing_kind = ? AND listing_id = ?
	) WHERE id = ?`, enums.ListingKindProduct, id, id).Error; err != nil {
		return err
	}
	return tx.Exec(`UPDATE products SET
		rating = COALESCE((
			SELECT AVG(rating) FROM listing_comments
			WHERE listing_kind = ? AND listing_id = ? AND rating IS NOT NULL
		), 0),
		total_ratings = (
			SELECT COUNT(*) FROM listing_comments
			WHERE listing_kind = ? AND listing_id = ? AND rating IS NOT NULL
		)
	WHERE id = ?`, enums.ListingKindProduct, id, enums.ListingKindProduct, id, id).Error
}

// RecountOffersTx pins total_offers to the offer ledger cardinality.
func (r *ProductRepository) RecountOffersTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Exec(`UPDATE products SET total_offers = (
		SELECT COUNT(*) FROM listing_offers
		WHERE listing_kind = ? AND listing_id = ?
	) WHERE id = ?`, enums.ListingKindProduct, id, id).Error
}

// RecountOrdersTx pins total_orders to the order ledger and accumulates
// revenue from it.
func (r *ProductRepository) RecountOrdersTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Exec(`UPDATE products SET
		total_orders = (SELECT COUNT(*) FROM listing_orders WHERE product_id = ?),
		total_revenue_kurus = COALESCE((SELECT SUM(total_kurus) FROM listing_orders WHERE product_id = ?), 0)
	WHERE id = ?`, id, id, id).Error
}

// DecrementVariantStockTx conditionally takes stock from a variant. The
// check and the decrement are one statement so stock can never go negative
// under concurrent demand.
func (r *ProductRepository) DecrementVariantStockTx(tx *gorm.DB, variantID uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected > 0, res.Error
}

// DecrementAvailableQuantityTx is the variant-less fallback decrement.
func (r *ProductRepository) DecrementAvailableQuantityTx(tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND available_quantity >= ?", productID, qty).
		Update("available_quantity", gorm.Expr("available_quantity - ?", qty))
	return res.RowsAffected > 0, res.Error
}

// FindVariant loads one variant of the product.
func (r *ProductRepository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ?", variantID, productID).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}
