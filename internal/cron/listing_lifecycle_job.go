package cron

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox/payloads"
)

const (
	defaultReminderWindow = 7 * 24 * time.Hour
	defaultReminderDedup  = 24 * time.Hour
	sweepBatchLimit       = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lifecycleEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExistsSince(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent, window time.Duration) error
}

// ListingLifecycleJobParams configure the listing expiry scheduler.
type ListingLifecycleJobParams struct {
	Logger         *logger.Logger
	DB             txRunner
	Repositories   []listings.LifecycleRepository
	Outbox         lifecycleEmitter
	ReminderWindow time.Duration
	ReminderDedup  time.Duration
}

// NewListingLifecycleJob builds the cron job that expires overdue listings
// and reminds producers of upcoming deadlines.
func NewListingLifecycleJob(params ListingLifecycleJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if len(params.Repositories) == 0 {
		return nil, fmt.Errorf("at least one lifecycle repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	reminderWindow := params.ReminderWindow
	if reminderWindow <= 0 {
		reminderWindow = defaultReminderWindow
	}
	reminderDedup := params.ReminderDedup
	if reminderDedup <= 0 {
		reminderDedup = defaultReminderDedup
	}
	return &listingLifecycleJob{
		logg:           params.Logger,
		db:             params.DB,
		repos:          params.Repositories,
		outbox:         params.Outbox,
		reminderWindow: reminderWindow,
		reminderDedup:  reminderDedup,
		now:            time.Now,
	}, nil
}

type listingLifecycleJob struct {
	logg           *logger.Logger
	db             txRunner
	repos          []listings.LifecycleRepository
	outbox         lifecycleEmitter
	reminderWindow time.Duration
	reminderDedup  time.Duration
	now            func() time.Time
}

func (j *listingLifecycleJob) Name() string { return "listing-lifecycle" }

func (j *listingLifecycleJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.expireOverdue(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.remindExpiring(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

// expireOverdue deactivates every listing whose deadline has passed. Each
// listing gets its own transaction so one bad row cannot block the rest of
// the sweep.
func (j *listingLifecycleJob) expireOverdue(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error
	for _, repo := range j.repos {
		rows, err := repo.FindExpired(ctx, now, sweepBatchLimit)
		if err != nil {
			errs = append(errs, fmt.Errorf("query expired %s listings: %w", repo.Kind(), err))
			continue
		}
		count := 0
		for _, row := range rows {
			if err := j.expireListing(ctx, repo, row, now); err != nil {
				errs = append(errs, fmt.Errorf("expire %s %s: %w", repo.Kind(), row.ID, err))
				continue
			}
			count++
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"kind":  repo.Kind(),
			"count": count,
		})
		j.logg.Info(logCtx, "listing expiry sweep complete")
	}
	return multierr.Combine(errs...)
}

func (j *listingLifecycleJob) expireListing(ctx context.Context, repo listings.LifecycleRepository, row listings.ExpiringListing, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		deactivated, err := repo.DeactivateTx(tx, row.ID, now)
		if err != nil {
			return err
		}
		// a concurrent reactivation between query and update wins
		if !deactivated {
			return nil
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingAutoDeactivated,
			AggregateType: enums.AggregateForListingKind(row.Kind),
			AggregateID:   row.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.ListingAutoDeactivatedEvent{
				ListingID:     row.ID,
				ListingKind:   row.Kind,
				ProducerID:    row.ProducerID,
				Title:         row.Title,
				DeactivatedAt: now,
			},
		})
	})
}

// remindExpiring emits at most one reminder per listing per dedup window
// for listings whose deadline falls inside the reminder window.
func (j *listingLifecycleJob) remindExpiring(ctx context.Context) error {
	now := j.now().UTC()
	until := now.Add(j.reminderWindow)
	var errs []error
	for _, repo := range j.repos {
		rows, err := repo.FindExpiringWithin(ctx, now, until, sweepBatchLimit)
		if err != nil {
			errs = append(errs, fmt.Errorf("query expiring %s listings: %w", repo.Kind(), err))
			continue
		}
		count := 0
		for _, row := range rows {
			if !row.NotificationSettings.AutoDeactivateReminder {
				continue
			}
			if err := j.remindListing(ctx, row, now); err != nil {
				errs = append(errs, fmt.Errorf("remind %s %s: %w", repo.Kind(), row.ID, err))
				continue
			}
			count++
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"kind":  repo.Kind(),
			"count": count,
		})
		j.logg.Info(logCtx, "listing reminder sweep complete")
	}
	return multierr.Combine(errs...)
}

func (j *listingLifecycleJob) remindListing(ctx context.Context, row listings.ExpiringListing, now time.Time) error {
	daysLeft := daysUntil(now, row.AutoDeactivateAt)
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExistsSince(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingDeactivationReminder,
			AggregateType: enums.AggregateForListingKind(row.Kind),
			AggregateID:   row.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.ListingDeactivationReminderEvent{
				ListingID:        row.ID,
				ListingKind:      row.Kind,
				ProducerID:       row.ProducerID,
				Title:            row.Title,
				AutoDeactivateAt: row.AutoDeactivateAt,
				DaysLeft:         daysLeft,
			},
		}, j.reminderDedup)
	})
}

// daysUntil reports the whole days remaining until the deadline, rounding
// up so a deadline 6.5 days away reads as 7.
func daysUntil(now, deadline time.Time) int {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
