package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/infrastructure/repositories/memory"
)

var testLocation = models.FileLocation{
	SiteName:  "TeamSite",
	DriveName: "Documents",
	FilePath:  "/plans/roadmap.xlsx",
}

func testNotification(id string, row int, reason models.NotifyReason) *models.Notification {
	return &models.Notification{
		ID:          id,
		HostID:      "host-1",
		SiteName:    testLocation.SiteName,
		DriveName:   testLocation.DriveName,
		FilePath:    testLocation.FilePath,
		SheetName:   "Tasks",
		Row:         row,
		Task:        "Ship feature",
		ChatID:      "chat-1",
		CellAddress: "G5",
		Reason:      reason,
		Status:      models.NotificationPending,
	}
}

func TestNotificationRepository_SaveAndFindByID(t *testing.T) {
	repo := memory.NewNotificationRepository()
	ctx := context.Background()

	notification := testNotification("n-1", 5, models.ReasonStartDateMissing)

	require.NoError(t, repo.Save(ctx, notification))
	assert.Equal(t, int64(1), notification.Version)
	assert.False(t, notification.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, notification.Task, found.Task)
	assert.Equal(t, notification.Reason, found.Reason)

	_, err = repo.FindByID(ctx, "missing")
	require.Error(t, err)
	assert.IsType(t, &errors.ErrNotificationNotFound{}, err)
}

func TestNotificationRepository_FindByNaturalKey(t *testing.T) {
	repo := memory.NewNotificationRepository()
	ctx := context.Background()

	notification := testNotification("n-1", 5, models.ReasonStartDateMissing)
	require.NoError(t, repo.Save(ctx, notification))

	t.Run("Find existing record", func(t *testing.T) {
		found, err := repo.FindByNaturalKey(ctx, notification.Key())

		require.NoError(t, err)
		assert.Equal(t, "n-1", found.ID)
	})

	t.Run("Different reason is a different key", func(t *testing.T) {
		key := notification.Key()
		key.Reason = models.ReasonDueDateMissing

		_, err := repo.FindByNaturalKey(ctx, key)

		require.Error(t, err)
		assert.IsType(t, &errors.ErrNotificationNotFound{}, err)
	})

	t.Run("Completed record is still found", func(t *testing.T) {
		found, err := repo.FindByNaturalKey(ctx, notification.Key())
		require.NoError(t, err)

		found.Status = models.NotificationCompleted
		require.NoError(t, repo.Update(ctx, found))

		again, err := repo.FindByNaturalKey(ctx, notification.Key())
		require.NoError(t, err)
		assert.Equal(t, models.NotificationCompleted, again.Status)
	})

	t.Run("Active record preferred over completed", func(t *testing.T) {
		active := testNotification("n-2", 5, models.ReasonStartDateMissing)
		require.NoError(t, repo.Save(ctx, active))

		found, err := repo.FindByNaturalKey(ctx, active.Key())
		require.NoError(t, err)
		assert.Equal(t, "n-2", found.ID)
	})
}

func TestNotificationRepository_Update_VersionConflict(t *testing.T) {
	repo := memory.NewNotificationRepository()
	ctx := context.Background()

	notification := testNotification("n-1", 5, models.ReasonStartDateMissing)
	require.NoError(t, repo.Save(ctx, notification))

	first, err := repo.FindByID(ctx, "n-1")
	require.NoError(t, err)

	second, err := repo.FindByID(ctx, "n-1")
	require.NoError(t, err)

	first.Status = models.NotificationSent
	require.NoError(t, repo.Update(ctx, first))

	second.Status = models.NotificationFailed
	err = repo.Update(ctx, second)

	require.Error(t, err)
	assert.IsType(t, &errors.ErrVersionConflict{}, err)
}

func TestNotificationRepository_FindActiveByHost(t *testing.T) {
	repo := memory.NewNotificationRepository()
	ctx := context.Background()

	pending := testNotification("n-1", 5, models.ReasonStartDateMissing)
	require.NoError(t, repo.Save(ctx, pending))

	failed := testNotification("n-2", 6, models.ReasonDueDateMissing)
	failed.Status = models.NotificationFailed
	require.NoError(t, repo.Save(ctx, failed))

	completed := testNotification("n-3", 7, models.ReasonOwnerMissing)
	completed.Status = models.NotificationCompleted
	require.NoError(t, repo.Save(ctx, completed))

	other := testNotification("n-4", 5, models.ReasonStartDateMissing)
	other.HostID = "host-2"
	require.NoError(t, repo.Save(ctx, other))

	active, err := repo.FindActiveByHost(ctx, "host-1")

	require.NoError(t, err)
	require.Len(t, active, 2)

	for _, n := range active {
		assert.NotEqual(t, models.NotificationCompleted, n.Status)
		assert.Equal(t, "host-1", n.HostID)
	}
}

func TestNotificationRepository_DeleteByFile(t *testing.T) {
	repo := memory.NewNotificationRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testNotification("n-1", 5, models.ReasonStartDateMissing)))
	require.NoError(t, repo.Save(ctx, testNotification("n-2", 6, models.ReasonDueDateMissing)))

	otherFile := testNotification("n-3", 5, models.ReasonStartDateMissing)
	otherFile.FilePath = "/plans/other.xlsx"
	require.NoError(t, repo.Save(ctx, otherFile))

	deleted, err := repo.DeleteByFile(ctx, "host-1", testLocation)

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = repo.FindByID(ctx, "n-3")
	require.NoError(t, err)
}
