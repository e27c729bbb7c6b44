package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type NotificationRepository struct {
	notifications map[string]*models.Notification
	mu            sync.RWMutex
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		notifications: make(map[string]*models.Notification),
	}
}

func (r *NotificationRepository) Save(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	notification.UpdatedAt = time.Now()
	notification.Version = 1

	r.notifications[notification.ID] = copyNotification(notification)

	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notification, exists := r.notifications[id]
	if !exists {
		return nil, &errors.ErrNotificationNotFound{NotificationID: id}
	}

	return copyNotification(notification), nil
}

func (r *NotificationRepository) FindByNaturalKey(ctx context.Context, key models.NotificationKey) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var completed *models.Notification

	for _, notification := range r.notifications {
		if notification.Key() != key {
			continue
		}

		if notification.Status != models.NotificationCompleted {
			return copyNotification(notification), nil
		}

		completed = notification
	}

	if completed != nil {
		return copyNotification(completed), nil
	}

	return nil, &errors.ErrNotificationNotFound{NotificationID: key.FilePath}
}

func (r *NotificationRepository) FindByStatus(ctx context.Context, status models.NotificationStatus) ([]*models.Notification, error) {
	return r.findBy(func(n *models.Notification) bool {
		return n.Status == status
	}), nil
}

func (r *NotificationRepository) FindActiveByHost(ctx context.Context, hostID string) ([]*models.Notification, error) {
	return r.findBy(func(n *models.Notification) bool {
		return n.HostID == hostID && n.Status != models.NotificationCompleted
	}), nil
}

func (r *NotificationRepository) FindActiveByFile(ctx context.Context, hostID string, loc models.FileLocation) ([]*models.Notification, error) {
	return r.findBy(func(n *models.Notification) bool {
		return n.HostID == hostID && n.SiteName == loc.SiteName &&
			n.DriveName == loc.DriveName && n.FilePath == loc.FilePath &&
			n.Status != models.NotificationCompleted
	}), nil
}

func (r *NotificationRepository) findBy(match func(*models.Notification) bool) []*models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notifications []*models.Notification

	for _, notification := range r.notifications {
		if match(notification) {
			notifications = append(notifications, copyNotification(notification))
		}
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.Before(notifications[j].CreatedAt)
	})

	return notifications
}

func (r *NotificationRepository) Update(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.notifications[notification.ID]
	if !exists {
		return &errors.ErrNotificationNotFound{NotificationID: notification.ID}
	}

	if stored.Version != notification.Version {
		return &errors.ErrVersionConflict{Entity: "уведомление", ID: notification.ID}
	}

	notification.Version++
	notification.UpdatedAt = time.Now()

	r.notifications[notification.ID] = copyNotification(notification)

	return nil
}

func (r *NotificationRepository) DeleteByFile(ctx context.Context, hostID string, loc models.FileLocation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64

	for id, notification := range r.notifications {
		if notification.HostID == hostID && notification.SiteName == loc.SiteName &&
			notification.DriveName == loc.DriveName && notification.FilePath == loc.FilePath {
			delete(r.notifications, id)

			deleted++
		}
	}

	return deleted, nil
}

func copyNotification(notification *models.Notification) *models.Notification {
	clone := *notification

	clone.MessageIDs = make([]string, len(notification.MessageIDs))
	copy(clone.MessageIDs, notification.MessageIDs)

	return &clone
}
