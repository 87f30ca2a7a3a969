package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// ProductionListingRepository wires production-listing persistence and the
// lifecycle queries shared with products.
type ProductionListingRepository struct {
	db *gorm.DB
}

// NewProductionListingRepository builds a repository tied to the provided GORM DB.
func NewProductionListingRepository(db *gorm.DB) *ProductionListingRepository {
	return &ProductionListingRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *ProductionListingRepository) WithTx(tx *gorm.DB) *ProductionListingRepository {
	return &ProductionListingRepository{db: tx}
}

// Kind implements LifecycleRepository.
func (r *ProductionListingRepository) Kind() enums.ListingKind {
	return enums.ListingKindProductionListing
}

// Create persists the listing.
func (r *ProductionListingRepository) Create(ctx context.Context, listing *models.ProductionListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// FindByID loads the listing.
func (r *ProductionListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductionListing, error) {
	var listing models.ProductionListing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListByProducer returns all listings owned by the producer.
func (r *ProductionListingRepository) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]models.ProductionListing, error) {
	var rows []models.ProductionListing
	err := r.db.WithContext(ctx).
		Where("producer_id = ?", producerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Save persists all changed fields of the listing.
func (r *ProductionListingRepository) Save(ctx context.Context, listing *models.ProductionListing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// ActivateTx stamps the activation edge and recomputes the deadline.
func (r *ProductionListingRepository) ActivateTx(tx *gorm.DB, id uuid.UUID, at, deadline time.Time) error {
	return tx.Model(&models.ProductionListing{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":          true,
			"last_activated_at":  at,
			"auto_deactivate_at": deadline,
			"deactivated_at":     nil,
		}).Error
}

// DeactivateTx implements LifecycleRepository.
func (r *ProductionListingRepository) DeactivateTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := tx.Model(&models.ProductionListing{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":          false,
			"deactivated_at":     at,
			"auto_deactivate_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

// FindExpired implements LifecycleRepository.
func (r *ProductionListingRepository) FindExpired(ctx context.Context, asOf time.Time, limit int) ([]ExpiringListing, error) {
	return r.findLifecycleRows(ctx, "auto_deactivate_at <= ?", []any{asOf}, limit)
}

// FindExpiringWithin implements LifecycleRepository.
func (r *ProductionListingRepository) FindExpiringWithin(ctx context.Context, asOf, until time.Time, limit int) ([]ExpiringListing, error) {
	return r.findLifecycleRows(ctx, "auto_deactivate_at > ? AND auto_deactivate_at <= ?", []any{asOf, until}, limit)
}

func (r *ProductionListingRepository) findLifecycleRows(ctx context.Context, cond string, args []any, limit int) ([]ExpiringListing, error) {
	var rows []models.ProductionListing
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
	for _, l := range rows {
		if l.AutoDeactivateAt == nil {
			continue
		}
		out = append(out, ExpiringListing{
			ID:                   l.ID,
			Kind:                 enums.ListingKindProductionListing,
			ProducerID:           l.ProducerID,
			Title:                l.Title,
			AutoDeactivateAt:     *l.AutoDeactivateAt,
			NotificationSettings: l.NotificationSettings,
		})
	}
	return out, nil
}

// RecountLikesTx pins total_likes to the ledger cardinality.
func (r *ProductionListingRepository) RecountLikesTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Exec(`UPDATE production_listings SET total_likes = (
		SELECT COUNT(*) FROM listing_likes
		WHERE listing_kind = ? AND listing_id = ?
	) WHERE id = ?`, enums.ListingKindProductionListing, id, id).Error
}

// RecountCommentsTx pins total_comments to the ledger cardinality.
func (r *ProductionListingRepository) RecountCommentsTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Exec(`UPDATE production_listings SET total_comments = (
		SELECT COUNT(*) FROM listing_comments
		WHERE listing_kind = ? AND listing_id = ?
	) WHERE id = ?`, enums.ListingKindProductionListing, id, id).Error
}

// RecountOffersTx pins total_offers to the ledger cardinality.
func (r *ProductionListingRepository) RecountOffersTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Exec(`UPDATE production_listings SET total_offers = (
		SELECT COUNT(*) FROM listing_offers
		WHERE listing_kind = ? AND listing_id = ?
	) WHERE id = ?`, enums.ListingKindProductionListing, id, id).Error
}
