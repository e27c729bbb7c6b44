package sql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nebulap8/teams-automation/internal/database"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/pkg/txs"
)

const notificationColumns = `id, host_id, site_name, drive_name, file_path, sheet_name, row_index,
	task, chat_id, chat_name, owner_id, owner_email, owner_name, cell_address,
	reason, message_ids, status, attempts, version, created_at, updated_at`

type NotificationRepository struct {
	db *database.PostgresDB
}

func NewNotificationRepository(db *database.PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Save(ctx context.Context, notification *models.Notification) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	now := time.Now()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = now
	}

	notification.UpdatedAt = now
	notification.Version = 1

	if notification.MessageIDs == nil {
		notification.MessageIDs = []string{}
	}

	_, err := querier.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, notification.ID, notification.HostID, notification.SiteName, notification.DriveName,
		notification.FilePath, notification.SheetName, notification.Row,
		notification.Task, notification.ChatID, notification.ChatName,
		notification.OwnerID, notification.OwnerEmail, notification.OwnerName, notification.CellAddress,
		notification.Reason, notification.MessageIDs, notification.Status, notification.Attempts,
		notification.Version, notification.CreatedAt, notification.UpdatedAt)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение уведомления", Cause: err}
	}

	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	row := querier.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1
	`, id)

	notification, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrNotificationNotFound{NotificationID: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск уведомления", Cause: err}
	}

	return notification, nil
}

func (r *NotificationRepository) FindByNaturalKey(ctx context.Context, key models.NotificationKey) (*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	// Незавершённая запись имеет приоритет над завершённой.
	row := querier.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE host_id = $1 AND site_name = $2 AND drive_name = $3
		  AND file_path = $4 AND sheet_name = $5 AND row_index = $6 AND reason = $7
		ORDER BY (status = $8), created_at DESC
		LIMIT 1
	`, key.HostID, key.SiteName, key.DriveName, key.FilePath, key.SheetName, key.Row, key.Reason,
		models.NotificationCompleted)

	notification, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrNotificationNotFound{NotificationID: key.FilePath}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск уведомления по ключу", Cause: err}
	}

	return notification, nil
}

func (r *NotificationRepository) FindByStatus(ctx context.Context, status models.NotificationStatus) ([]*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE status = $1
		ORDER BY created_at
	`, status)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка уведомлений по статусу", Cause: err}
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *NotificationRepository) FindActiveByHost(ctx context.Context, hostID string) ([]*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE host_id = $1 AND status <> $2
		ORDER BY created_at
	`, hostID, models.NotificationCompleted)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка активных уведомлений", Cause: err}
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *NotificationRepository) FindActiveByFile(ctx context.Context, hostID string, loc models.FileLocation) ([]*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE host_id = $1 AND site_name = $2 AND drive_name = $3 AND file_path = $4
		  AND status <> $5
		ORDER BY row_index
	`, hostID, loc.SiteName, loc.DriveName, loc.FilePath, models.NotificationCompleted)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка уведомлений по файлу", Cause: err}
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *NotificationRepository) Update(ctx context.Context, notification *models.Notification) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	notification.UpdatedAt = time.Now()

	if notification.MessageIDs == nil {
		notification.MessageIDs = []string{}
	}

	tag, err := querier.Exec(ctx, `
		UPDATE notifications
		SET task = $1, chat_id = $2, chat_name = $3, owner_id = $4, owner_email = $5,
			owner_name = $6, cell_address = $7, message_ids = $8, status = $9,
			attempts = $10, version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13
	`, notification.Task, notification.ChatID, notification.ChatName,
		notification.OwnerID, notification.OwnerEmail, notification.OwnerName,
		notification.CellAddress, notification.MessageIDs, notification.Status,
		notification.Attempts, notification.UpdatedAt, notification.ID, notification.Version)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление уведомления", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrVersionConflict{Entity: "уведомление", ID: notification.ID}
	}

	notification.Version++

	return nil
}

func (r *NotificationRepository) DeleteByFile(ctx context.Context, hostID string, loc models.FileLocation) (int64, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, `
		DELETE FROM notifications
		WHERE host_id = $1 AND site_name = $2 AND drive_name = $3 AND file_path = $4
	`, hostID, loc.SiteName, loc.DriveName, loc.FilePath)
	if err != nil {
		return 0, &customerrors.ErrSQLExecution{Operation: "удаление уведомлений файла", Cause: err}
	}

	return tag.RowsAffected(), nil
}

func collectNotifications(rows pgx.Rows) ([]*models.Notification, error) {
	var notifications []*models.Notification

	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "уведомление", Cause: err}
		}

		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход выборки уведомлений", Cause: err}
	}

	return notifications, nil
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	notification := &models.Notification{}

	err := row.Scan(&notification.ID, &notification.HostID, &notification.SiteName,
		&notification.DriveName, &notification.FilePath, &notification.SheetName, &notification.Row,
		&notification.Task, &notification.ChatID, &notification.ChatName,
		&notification.OwnerID, &notification.OwnerEmail, &notification.OwnerName,
		&notification.CellAddress, &notification.Reason, &notification.MessageIDs,
		&notification.Status, &notification.Attempts, &notification.Version,
		&notification.CreatedAt, &notification.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return notification, nil
}
