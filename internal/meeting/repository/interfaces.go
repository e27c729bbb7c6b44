package repository

import (
	"context"

	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type MeetingRepository interface {
	Save(ctx context.Context, meeting *models.Meeting) error
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	// FindByIDForUpdate берёт блокировку строки и должен вызываться внутри транзакции.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Meeting, error)
	Update(ctx context.Context, meeting *models.Meeting) error
	FindByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error)
	Delete(ctx context.Context, id string) error
}
