package interactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
)

// Repository persists the interaction ledger rows (likes, comments, offers,
// direct orders).
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

// FindLike returns the like row for (listing, user), or nil.
func (r *Repository) FindLike(ctx context.Context, kind enums.ListingKind, listingID, userID uuid.UUID) (*models.ListingLike, error) {
	var like models.ListingLike
	err := r.db.WithContext(ctx).
		First(&like, "listing_kind = ? AND listing_id = ? AND user_id = ?", kind, listingID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

// InsertLikeTx appends a like row.
func (r *Repository) InsertLikeTx(tx *gorm.DB, like models.ListingLike) error {
	return tx.Create(&like).Error
}

// DeleteLikeTx removes the like row for (listing, user).
func (r *Repository) DeleteLikeTx(tx *gorm.DB, kind enums.ListingKind, listingID, userID uuid.UUID) error {
	return tx.
		Where("listing_kind = ? AND listing_id = ? AND user_id = ?", kind, listingID, userID).
		Delete(&models.ListingLike{}).Error
}

// CountLikes returns the like ledger cardinality for a listing.
func (r *Repository) CountLikes(ctx context.Context, kind enums.ListingKind, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ListingLike{}).
		Where("listing_kind = ? AND listing_id = ?", kind, listingID).
		Count(&count).Error
	return count, err
}

// InsertCommentTx appends a comment row.
func (r *Repository) InsertCommentTx(tx *gorm.DB, comment *models.ListingComment) error {
	return tx.Create(comment).Error
}

// ListComments returns a listing's comments, newest first.
func (r *Repository) ListComments(ctx context.Context, kind enums.ListingKind, listingID uuid.UUID) ([]models.ListingComment, error) {
	var rows []models.ListingComment
	err := r.db.WithContext(ctx).
		Where("listing_kind = ? AND listing_id = ?", kind, listingID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// InsertOfferTx appends an offer row.
func (r *Repository) InsertOfferTx(tx *gorm.DB, offer *models.ListingOffer) error {
	return tx.Create(offer).Error
}

// FindOffer loads one offer of a listing.
func (r *Repository) FindOffer(ctx context.Context, kind enums.ListingKind, listingID, offerID uuid.UUID) (*models.ListingOffer, error) {
	var offer models.ListingOffer
	err := r.db.WithContext(ctx).
		First(&offer, "id = ? AND listing_kind = ? AND listing_id = ?", offerID, kind, listingID).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListOffers returns a listing's offers, newest first.
func (r *Repository) ListOffers(ctx context.Context, kind enums.ListingKind, listingID uuid.UUID) ([]models.ListingOffer, error) {
	var rows []models.ListingOffer
	err := r.db.WithContext(ctx).
		Where("listing_kind = ? AND listing_id = ?", kind, listingID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// DecideOfferTx moves a pending offer to its final status. The pending
// precondition is part of the statement, so the transition is one-way.
func (r *Repository) DecideOfferTx(tx *gorm.DB, offerID uuid.UUID, status enums.OfferStatus, at time.Time) (bool, error) {
	res := tx.Model(&models.ListingOffer{}).
		Where("id = ? AND status = ?", offerID, enums.OfferStatusPending).
		Updates(map[string]any{
			"status":     status,
			"decided_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// InsertOrderTx appends a direct-order row.
func (r *Repository) InsertOrderTx(tx *gorm.DB, order *models.ListingOrder) error {
	return tx.Create(order).Error
}
