package repositories

import (
	"context"
	"testing"
	"time"

	"admin_console/internal/models"
	"admin_console/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newNotification(userID uint, department string, createdAt time.Time) *models.Notification {
	return &models.Notification{
		UserID:         userID,
		UserName:       "user",
		UserEmail:      "user@corp.io",
		UserDepartment: department,
		CreatedAt:      createdAt,
	}
}

func TestNotificationRepository_UpsertNewUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(testutil.NewTestDB(t))
	now := time.Now()

	inserted, err := repo.UpsertNewUser(ctx, newNotification(1, "Sales", now))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.UpsertNewUser(ctx, newNotification(1, "Sales", now))
	require.NoError(t, err)
	assert.False(t, inserted, "повторная пара (user, department) не вставляется")

	inserted, err = repo.UpsertNewUser(ctx, newNotification(1, "Engineering", now))
	require.NoError(t, err)
	assert.True(t, inserted)

	sales, err := repo.ListUnreadByDepartment(ctx, "Sales")
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	eng, err := repo.ListUnreadByDepartment(ctx, "Engineering")
	require.NoError(t, err)
	assert.Len(t, eng, 1)
}

func TestNotificationRepository_UpsertAfterReadCreatesNewUnread(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(testutil.NewTestDB(t))

	first := newNotification(5, "Sales", time.Now())
	inserted, err := repo.UpsertNewUser(ctx, first)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, repo.MarkAsRead(ctx, first.ID))

	inserted, err = repo.UpsertNewUser(ctx, newNotification(5, "Sales", time.Now()))
	require.NoError(t, err)
	assert.True(t, inserted, "прочитанная запись не блокирует новую")

	inserted, err = repo.UpsertNewUser(ctx, newNotification(5, "Sales", time.Now()))
	require.NoError(t, err)
	assert.False(t, inserted)

	sales, err := repo.ListUnreadByDepartment(ctx, "Sales")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.NotEqual(t, first.ID, sales[0].ID)
}

func TestNotificationRepository_ListUnreadByDepartment(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(testutil.NewTestDB(t))
	base := time.Now().Add(-time.Hour)

	require.NoError(t, repo.Create(ctx, newNotification(1, "Engineering", base)))
	require.NoError(t, repo.Create(ctx, newNotification(2, "All", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newNotification(3, "Sales", base.Add(2*time.Minute))))
	require.NoError(t, repo.Create(ctx, newNotification(4, "Engineering", base.Add(3*time.Minute))))
	read := newNotification(5, "Engineering", base.Add(4*time.Minute))
	require.NoError(t, repo.Create(ctx, read))
	require.NoError(t, repo.MarkAsRead(ctx, read.ID))

	list, err := repo.ListUnreadByDepartment(ctx, "Engineering")
	require.NoError(t, err)

	var userIDs []uint
	for _, n := range list {
		assert.Contains(t, []string{"Engineering", "All"}, n.UserDepartment)
		assert.False(t, n.IsRead)
		userIDs = append(userIDs, n.UserID)
	}
	assert.Equal(t, []uint{4, 2, 1}, userIDs, "новые сверху")

	// clearAll
	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	for _, dept := range []string{"Engineering", "Sales", "All"} {
		list, err := repo.ListUnreadByDepartment(ctx, dept)
		require.NoError(t, err)
		assert.Empty(t, list)
	}
}

func TestNotificationRepository_ListUnreadByDepartmentTiesByID(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(testutil.NewTestDB(t))
	at := time.Now().Truncate(time.Second)

	first := newNotification(1, "Sales", at)
	second := newNotification(2, "Sales", at)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.ListUnreadByDepartment(ctx, "Sales")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(testutil.NewTestDB(t))

	n := newNotification(1, "Sales", time.Now())
	require.NoError(t, repo.Create(ctx, n))

	require.NoError(t, repo.MarkAsRead(ctx, n.ID))
	require.NoError(t, repo.MarkAsRead(ctx, n.ID), "повторная отметка не ошибка")
	assert.ErrorIs(t, repo.MarkAsRead(ctx, 9999), ErrNotificationNotFound)

	list, err := repo.ListUnreadByDepartment(ctx, "Sales")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotificationRepository_UserNotifications(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(testutil.NewTestDB(t))

	require.NoError(t, repo.CreateUserNotification(ctx, &models.UserNotification{
		UserID:    42,
		UpdatedBy: "admin@corp.io",
		Changes:   datatypes.JSONMap{"status": "inactive"},
	}))
	require.NoError(t, repo.CreateUserNotification(ctx, &models.UserNotification{
		UserID:    7,
		UpdatedBy: "admin@corp.io",
		Changes:   datatypes.JSONMap{"name": "Bob"},
	}))

	list, err := repo.ListUnreadForUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "inactive", list[0].Changes["status"])

	n, err := repo.MarkAllReadForUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = repo.ListUnreadForUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.ListUnreadForUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1, "чужие уведомления не затронуты")
}
