package models

import "time"

// ListingLifecycle carries the activation window shared by every listing
// kind. AutoDeactivateAt is only meaningful while AutoDeactivateEnabled and
// IsActive both hold; activation recomputes it from scratch.
type ListingLifecycle struct {
	IsActive              bool       `gorm:"column:is_active;not null;default:true"`
	AutoDeactivateEnabled bool       `gorm:"column:auto_deactivate_enabled;not null;default:true"`
	LastActivatedAt       *time.Time `gorm:"column:last_activated_at"`
	AutoDeactivateAt      *time.Time `gorm:"column:auto_deactivate_at"`
	DeactivatedAt         *time.Time `gorm:"column:deactivated_at"`
}
