package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
)`).Error)
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time, readAt *time.Time) models.Notification {
	t.Helper()
	notification := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationTypeListingLiked,
		Title:     "İlanınız beğenildi",
		Message:   "test",
		ReadAt:    readAt,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&notification).Error)
	return notification
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(-i)*time.Hour), nil)
	}
	seedNotification(t, db, uuid.New(), base, nil)

	result, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.NotEmpty(t, result.Cursor)
	assert.Equal(t, int64(3), result.UnreadCount)
	assert.True(t, result.Items[0].CreatedAt.After(result.Items[1].CreatedAt))

	rest, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2, Cursor: result.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)
}

func TestMarkRead_ScopedToOwner(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()
	notification := seedNotification(t, db, userID, time.Now().UTC(), nil)
	ctx := context.Background()

	err = svc.MarkRead(ctx, uuid.New(), notification.ID)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())

	require.NoError(t, svc.MarkRead(ctx, userID, notification.ID))
	// already read is not an error
	require.NoError(t, svc.MarkRead(ctx, userID, notification.ID))

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", notification.ID).Error)
	require.NotNil(t, stored.ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()
	now := time.Now().UTC()
	seedNotification(t, db, userID, now, nil)
	seedNotification(t, db, userID, now, nil)
	seedNotification(t, db, userID, now, &now)

	count, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).Count(&unread).Error)
	assert.Zero(t, unread)
}

func TestDeleteOlderThan_KeepsUnread(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	readAt := old.Add(time.Hour)
	seedNotification(t, db, userID, old, &readAt)
	seedNotification(t, db, userID, old, nil)
	seedNotification(t, db, userID, time.Now().UTC(), &readAt)

	deleted, err := repo.DeleteOlderThan(context.Background(), time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}
