package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

// ExpiringListing is the kind-agnostic projection the lifecycle sweeps work
// on. Both listing repositories produce it so the sweep logic exists once.
type ExpiringListing struct {
	ID                   uuid.UUID
	Kind                 enums.ListingKind
	ProducerID           uuid.UUID
	Title                string
	AutoDeactivateAt     time.Time
	NotificationSettings types.NotificationSettings
}

// LifecycleRepository is the per-kind query surface the scheduler needs.
type LifecycleRepository interface {
	Kind() enums.ListingKind

	// FindExpired returns active listings whose deactivation deadline has
	// passed as of the given instant.
	FindExpired(ctx context.Context, asOf time.Time, limit int) ([]ExpiringListing, error)

	// FindExpiringWithin returns active listings whose deadline falls in
	// (asOf, until].
	FindExpiringWithin(ctx context.Context, asOf, until time.Time, limit int) ([]ExpiringListing, error)

	// DeactivateTx clears the active flag and stamps deactivated_at. It only
	// touches rows still active, so a concurrent reactivation wins.
	DeactivateTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
}
