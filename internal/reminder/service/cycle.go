package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/reminder/repository"
)

type TriggerScheduler interface {
	Reschedule(ctx context.Context, oldTriggerID string, runAt time.Time, job func()) (string, error)
	Cancel(triggerID string) error
}

type SheetScanner interface {
	Scan(ctx context.Context, hostID string, loc models.FileLocation, sheetName string, notifyInterval time.Duration) (*models.TrackedFile, int, error)
}

// Cycle — один проход напоминаний по файлу: сверка ответов, повторное
// сканирование листа, рассылка незавершённых уведомлений, фиксация времени
// запуска и постановка следующего триггера. Следующий запуск всегда
// планируется явно, последним действием цикла.
type Cycle struct {
	reconciler       *Reconciler
	scanner          SheetScanner
	dispatcher       *Dispatcher
	notificationRepo repository.NotificationRepository
	trackedFileRepo  repository.TrackedFileRepository
	triggers         TriggerScheduler
	logger           *slog.Logger
}

func NewCycle(
	reconciler *Reconciler,
	scanner SheetScanner,
	dispatcher *Dispatcher,
	notificationRepo repository.NotificationRepository,
	trackedFileRepo repository.TrackedFileRepository,
	triggers TriggerScheduler,
	logger *slog.Logger,
) *Cycle {
	return &Cycle{
		reconciler:       reconciler,
		scanner:          scanner,
		dispatcher:       dispatcher,
		notificationRepo: notificationRepo,
		trackedFileRepo:  trackedFileRepo,
		triggers:         triggers,
		logger:           logger,
	}
}

func (c *Cycle) Run(ctx context.Context, trackedFileID string) error {
	file, err := c.trackedFileRepo.FindByID(ctx, trackedFileID)
	if err != nil {
		return err
	}

	loc := models.FileLocation{
		SiteName:  file.SiteName,
		DriveName: file.DriveName,
		FilePath:  file.FilePath,
	}

	if err := c.reconciler.Reconcile(ctx, file.HostID); err != nil {
		c.logger.Error("Ошибка при сверке ответов",
			"fileID", trackedFileID,
			"error", err)
	}

	// Повторное сканирование подхватывает строки, ставшие проблемными после
	// постановки файла на учёт, и возвращает FAILED-уведомления в работу.
	if _, upserted, err := c.scanner.Scan(ctx, file.HostID, loc, file.SheetName, file.NotifyInterval); err != nil {
		c.logger.Error("Ошибка при сканировании листа",
			"fileID", trackedFileID,
			"error", err)
	} else if upserted > 0 {
		c.logger.Info("Сканирование обновило уведомления",
			"fileID", trackedFileID,
			"upserted", upserted)
	}

	if err := c.dispatcher.DispatchFile(ctx, file.HostID, loc); err != nil {
		c.logger.Error("Ошибка при рассылке напоминаний",
			"fileID", trackedFileID,
			"error", err)
	}

	now := time.Now()
	next := now.Add(file.NotifyInterval)

	if err := c.trackedFileRepo.UpdateRunTimes(ctx, trackedFileID, &now, &next); err != nil {
		return err
	}

	triggerID, err := c.triggers.Reschedule(ctx, file.TriggerID, next, func() {
		if runErr := c.Run(context.Background(), trackedFileID); runErr != nil {
			c.logger.Error("Ошибка в цикле напоминаний",
				"fileID", trackedFileID,
				"error", runErr)
		}
	})
	if err != nil {
		return err
	}

	if err := c.trackedFileRepo.SetTriggerID(ctx, trackedFileID, triggerID); err != nil {
		return err
	}

	c.logger.Info("Цикл напоминаний завершён",
		"fileID", trackedFileID,
		"nextRun", next)

	return nil
}

// Track регистрирует файл: немедленный запуск цикла и постановка триггера
// выполняются внутри Run.
func (c *Cycle) Track(ctx context.Context, trackedFileID string) error {
	return c.Run(ctx, trackedFileID)
}

// Untrack снимает файл с наблюдения: отменяет триггер и вычищает уведомления.
func (c *Cycle) Untrack(ctx context.Context, trackedFileID string) error {
	file, err := c.trackedFileRepo.FindByID(ctx, trackedFileID)
	if err != nil {
		return err
	}

	if file.TriggerID != "" {
		if err := c.triggers.Cancel(file.TriggerID); err != nil {
			c.logger.Warn("Не удалось отменить триггер файла",
				"fileID", trackedFileID,
				"error", err)
		}
	}

	loc := models.FileLocation{
		SiteName:  file.SiteName,
		DriveName: file.DriveName,
		FilePath:  file.FilePath,
	}

	deleted, err := c.notificationRepo.DeleteByFile(ctx, file.HostID, loc)
	if err != nil {
		return err
	}

	if err := c.trackedFileRepo.Delete(ctx, trackedFileID); err != nil {
		return err
	}

	c.logger.Info("Файл снят с наблюдения",
		"fileID", trackedFileID,
		"deletedNotifications", deleted)

	return nil
}
