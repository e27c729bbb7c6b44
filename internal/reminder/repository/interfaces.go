package repository

import (
	"context"
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type NotificationRepository interface {
	Save(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	// FindByNaturalKey ищет уведомление по естественному ключу;
	// незавершённая запись имеет приоритет над завершённой.
	FindByNaturalKey(ctx context.Context, key models.NotificationKey) (*models.Notification, error)
	FindByStatus(ctx context.Context, status models.NotificationStatus) ([]*models.Notification, error)
	FindActiveByHost(ctx context.Context, hostID string) ([]*models.Notification, error)
	FindActiveByFile(ctx context.Context, hostID string, loc models.FileLocation) ([]*models.Notification, error)
	Update(ctx context.Context, notification *models.Notification) error
	DeleteByFile(ctx context.Context, hostID string, loc models.FileLocation) (int64, error)
}

type TrackedFileRepository interface {
	// Upsert сохраняет файл либо возвращает уже существующую запись по расположению.
	Upsert(ctx context.Context, file *models.TrackedFile) (*models.TrackedFile, error)
	FindByID(ctx context.Context, id string) (*models.TrackedFile, error)
	GetAll(ctx context.Context) ([]*models.TrackedFile, error)
	UpdateRunTimes(ctx context.Context, id string, lastNotifiedAt, nextNotifyAt *time.Time) error
	SetTriggerID(ctx context.Context, id, triggerID string) error
	Delete(ctx context.Context, id string) error
}
