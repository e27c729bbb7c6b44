package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type TrackedFileRepository struct {
	files map[string]*models.TrackedFile
	mu    sync.RWMutex
}

func NewTrackedFileRepository() *TrackedFileRepository {
	return &TrackedFileRepository{
		files: make(map[string]*models.TrackedFile),
	}
}

func (r *TrackedFileRepository) Upsert(ctx context.Context, file *models.TrackedFile) (*models.TrackedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.files {
		if existing.HostID == file.HostID && existing.SiteName == file.SiteName &&
			existing.DriveName == file.DriveName && existing.FilePath == file.FilePath {
			existing.SheetName = file.SheetName
			existing.NotifyInterval = file.NotifyInterval
			existing.UpdatedAt = time.Now()

			clone := *existing

			return &clone, nil
		}
	}

	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	file.UpdatedAt = time.Now()

	clone := *file
	r.files[file.ID] = &clone

	stored := clone

	return &stored, nil
}

func (r *TrackedFileRepository) FindByID(ctx context.Context, id string) (*models.TrackedFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists {
		return nil, &errors.ErrTrackedFileNotFound{FilePath: id}
	}

	clone := *file

	return &clone, nil
}

func (r *TrackedFileRepository) GetAll(ctx context.Context) ([]*models.TrackedFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]*models.TrackedFile, 0, len(r.files))

	for _, file := range r.files {
		clone := *file
		files = append(files, &clone)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})

	return files, nil
}

func (r *TrackedFileRepository) UpdateRunTimes(ctx context.Context, id string, lastNotifiedAt, nextNotifyAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, exists := r.files[id]
	if !exists {
		return &errors.ErrTrackedFileNotFound{FilePath: id}
	}

	file.LastNotifiedAt = lastNotifiedAt
	file.NextNotifyAt = nextNotifyAt
	file.UpdatedAt = time.Now()

	return nil
}

func (r *TrackedFileRepository) SetTriggerID(ctx context.Context, id, triggerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, exists := r.files[id]
	if !exists {
		return &errors.ErrTrackedFileNotFound{FilePath: id}
	}

	file.TriggerID = triggerID
	file.UpdatedAt = time.Now()

	return nil
}

func (r *TrackedFileRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[id]; !exists {
		return &errors.ErrTrackedFileNotFound{FilePath: id}
	}

	delete(r.files, id)

	return nil
}
