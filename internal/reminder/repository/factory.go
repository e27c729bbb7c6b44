package repository

import (
	"log/slog"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/database"
	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/reminder/repository/orm"
	sqlrepo "github.com/nebulap8/teams-automation/internal/reminder/repository/sql"
)

type Factory struct {
	db     *database.PostgresDB
	config *config.Config
	logger *slog.Logger
}

func NewFactory(db *database.PostgresDB, config *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		db:     db,
		config: config,
		logger: logger,
	}
}

func (f *Factory) CreateNotificationRepository() (NotificationRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория уведомлений")
		return orm.NewNotificationRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория уведомлений")
		return sqlrepo.NewNotificationRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateTrackedFileRepository() (TrackedFileRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория отслеживаемых файлов")
		return orm.NewTrackedFileRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория отслеживаемых файлов")
		return sqlrepo.NewTrackedFileRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}
