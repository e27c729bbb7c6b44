package repository_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/database"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/reminder/repository"
)

var testLocation = models.FileLocation{
	SiteName:  "TeamSite",
	DriveName: "Documents",
	FilePath:  "/plans/roadmap.xlsx",
}

func setupTestDatabase(ctx context.Context, t *testing.T) (*database.PostgresDB, func()) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dbName := "testdb"
	dbUser := "testuser"
	dbPassword := "testpassword"

	container, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(10*time.Second),
		),
	)
	require.NoError(t, err, "не удалось запустить контейнер postgres")

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, host, port.Port(), dbName)

	migrationsPath, _ := filepath.Abs("../../../migrations")

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dsn)
	require.NoError(t, err, "не удалось создать экземпляр migrate")

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("не удалось применить миграции: %v", err)
	}

	sourceErr, dbErr := m.Close()
	require.NoError(t, sourceErr)
	require.NoError(t, dbErr)

	testCfg := &config.Config{
		DatabaseURL:     dsn,
		DatabaseMaxConn: 5,
	}

	db, err := database.NewPostgresDB(ctx, testCfg, logger)
	require.NoError(t, err, "не удалось подключиться к тестовой БД")

	cleanup := func() {
		db.Pool.Close()

		if err := container.Terminate(ctx); err != nil {
			t.Logf("Не удалось остановить контейнер postgres: %v", err)
		}
	}

	return db, cleanup
}

func clearTables(ctx context.Context, t *testing.T, db *database.PostgresDB) {
	t.Helper()

	for _, table := range []string{"notifications", "tracked_files", "meetings"} {
		_, err := db.Pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		require.NoErrorf(t, err, "не удалось очистить таблицу %s", table)
	}
}

func newNotification(row int, reason models.NotifyReason) *models.Notification {
	return &models.Notification{
		ID:          uuid.NewString(),
		HostID:      "host-1",
		SiteName:    testLocation.SiteName,
		DriveName:   testLocation.DriveName,
		FilePath:    testLocation.FilePath,
		SheetName:   "Tasks",
		Row:         row,
		Task:        "Ship feature",
		ChatID:      "chat-1",
		ChatName:    "Project Alpha",
		OwnerEmail:  "alice@example.com",
		CellAddress: "G5",
		Reason:      reason,
		Status:      models.NotificationPending,
	}
}

func TestRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx := context.Background()

	db, cleanup := setupTestDatabase(ctx, t)
	defer cleanup()

	for _, accessType := range []config.AccessType{config.SQLAccess, config.SquirrelAccess} {
		t.Run(string(accessType), func(t *testing.T) {
			runTestsForConfig(ctx, t, db, accessType)
		})
	}
}

func runTestsForConfig(ctx context.Context, t *testing.T, db *database.PostgresDB, accessType config.AccessType) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := repository.NewFactory(db, &config.Config{DatabaseAccessType: accessType}, logger)

	notificationRepo, err := factory.CreateNotificationRepository()
	require.NoError(t, err)

	trackedFileRepo, err := factory.CreateTrackedFileRepository()
	require.NoError(t, err)

	t.Run("Notification Save and FindByNaturalKey", func(t *testing.T) {
		clearTables(ctx, t, db)

		notification := newNotification(5, models.ReasonStartDateMissing)
		require.NoError(t, notificationRepo.Save(ctx, notification))

		found, err := notificationRepo.FindByNaturalKey(ctx, notification.Key())
		require.NoError(t, err)
		assert.Equal(t, notification.ID, found.ID)
		assert.Equal(t, models.NotificationPending, found.Status)
		assert.Equal(t, int64(1), found.Version)

		otherKey := notification.Key()
		otherKey.Reason = models.ReasonDueDateMissing

		_, err = notificationRepo.FindByNaturalKey(ctx, otherKey)
		require.Error(t, err)
		assert.IsType(t, &customerrors.ErrNotificationNotFound{}, err)
	})

	t.Run("Notification Update with optimistic lock", func(t *testing.T) {
		clearTables(ctx, t, db)

		notification := newNotification(5, models.ReasonStartDateMissing)
		require.NoError(t, notificationRepo.Save(ctx, notification))

		first, err := notificationRepo.FindByID(ctx, notification.ID)
		require.NoError(t, err)

		second, err := notificationRepo.FindByID(ctx, notification.ID)
		require.NoError(t, err)

		first.Status = models.NotificationSent
		first.MessageIDs = []string{"msg-1"}
		first.Attempts = 1
		require.NoError(t, notificationRepo.Update(ctx, first))
		assert.Equal(t, int64(2), first.Version)

		second.Status = models.NotificationFailed
		err = notificationRepo.Update(ctx, second)

		require.Error(t, err)
		assert.IsType(t, &customerrors.ErrVersionConflict{}, err)

		stored, err := notificationRepo.FindByID(ctx, notification.ID)
		require.NoError(t, err)
		assert.Equal(t, models.NotificationSent, stored.Status)
		assert.Equal(t, []string{"msg-1"}, stored.MessageIDs)
	})

	t.Run("Completed record does not block a new one", func(t *testing.T) {
		clearTables(ctx, t, db)

		completed := newNotification(5, models.ReasonStartDateMissing)
		completed.Status = models.NotificationCompleted
		require.NoError(t, notificationRepo.Save(ctx, completed))

		// Частичный уникальный индекс не мешает новой активной записи с тем же ключом.
		fresh := newNotification(5, models.ReasonStartDateMissing)
		require.NoError(t, notificationRepo.Save(ctx, fresh))

		found, err := notificationRepo.FindByNaturalKey(ctx, fresh.Key())
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, found.ID)
	})

	t.Run("FindActiveByFile excludes completed", func(t *testing.T) {
		clearTables(ctx, t, db)

		pending := newNotification(5, models.ReasonStartDateMissing)
		require.NoError(t, notificationRepo.Save(ctx, pending))

		completed := newNotification(6, models.ReasonDueDateMissing)
		completed.Status = models.NotificationCompleted
		require.NoError(t, notificationRepo.Save(ctx, completed))

		active, err := notificationRepo.FindActiveByFile(ctx, "host-1", testLocation)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, pending.ID, active[0].ID)
	})

	t.Run("DeleteByFile", func(t *testing.T) {
		clearTables(ctx, t, db)

		require.NoError(t, notificationRepo.Save(ctx, newNotification(5, models.ReasonStartDateMissing)))
		require.NoError(t, notificationRepo.Save(ctx, newNotification(6, models.ReasonDueDateMissing)))

		deleted, err := notificationRepo.DeleteByFile(ctx, "host-1", testLocation)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})

	t.Run("TrackedFile Upsert", func(t *testing.T) {
		clearTables(ctx, t, db)

		file := &models.TrackedFile{
			ID:             uuid.NewString(),
			HostID:         "host-1",
			SiteName:       testLocation.SiteName,
			DriveName:      testLocation.DriveName,
			FilePath:       testLocation.FilePath,
			SheetName:      "Tasks",
			NotifyInterval: time.Hour,
		}

		stored, err := trackedFileRepo.Upsert(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, file.ID, stored.ID)
		assert.Equal(t, time.Hour, stored.NotifyInterval)

		// Повторная регистрация того же файла обновляет лист и интервал,
		// сохраняя идентификатор записи.
		again, err := trackedFileRepo.Upsert(ctx, &models.TrackedFile{
			ID:             uuid.NewString(),
			HostID:         "host-1",
			SiteName:       testLocation.SiteName,
			DriveName:      testLocation.DriveName,
			FilePath:       testLocation.FilePath,
			SheetName:      "Plan",
			NotifyInterval: 30 * time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, stored.ID, again.ID)
		assert.Equal(t, "Plan", again.SheetName)
		assert.Equal(t, 30*time.Minute, again.NotifyInterval)

		files, err := trackedFileRepo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("TrackedFile run times and trigger", func(t *testing.T) {
		clearTables(ctx, t, db)

		file, err := trackedFileRepo.Upsert(ctx, &models.TrackedFile{
			ID:             uuid.NewString(),
			HostID:         "host-1",
			SiteName:       testLocation.SiteName,
			DriveName:      testLocation.DriveName,
			FilePath:       testLocation.FilePath,
			SheetName:      "Tasks",
			NotifyInterval: time.Hour,
		})
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Microsecond)
		next := now.Add(time.Hour)

		require.NoError(t, trackedFileRepo.UpdateRunTimes(ctx, file.ID, &now, &next))
		require.NoError(t, trackedFileRepo.SetTriggerID(ctx, file.ID, "trigger-1"))

		stored, err := trackedFileRepo.FindByID(ctx, file.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastNotifiedAt)
		require.NotNil(t, stored.NextNotifyAt)
		assert.True(t, stored.LastNotifiedAt.Equal(now))
		assert.True(t, stored.NextNotifyAt.Equal(next))
		assert.Equal(t, "trigger-1", stored.TriggerID)
	})

	t.Run("TrackedFile Delete", func(t *testing.T) {
		clearTables(ctx, t, db)

		file, err := trackedFileRepo.Upsert(ctx, &models.TrackedFile{
			ID:             uuid.NewString(),
			HostID:         "host-1",
			SiteName:       testLocation.SiteName,
			DriveName:      testLocation.DriveName,
			FilePath:       testLocation.FilePath,
			SheetName:      "Tasks",
			NotifyInterval: time.Hour,
		})
		require.NoError(t, err)

		require.NoError(t, trackedFileRepo.Delete(ctx, file.ID))

		_, err = trackedFileRepo.FindByID(ctx, file.ID)
		require.Error(t, err)
		assert.IsType(t, &customerrors.ErrTrackedFileNotFound{}, err)
	})
}
