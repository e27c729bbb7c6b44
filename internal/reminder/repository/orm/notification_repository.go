package orm

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nebulap8/teams-automation/internal/database"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/pkg/txs"
)

var notificationColumns = []string{
	"id", "host_id", "site_name", "drive_name", "file_path", "sheet_name", "row_index",
	"task", "chat_id", "chat_name", "owner_id", "owner_email", "owner_name", "cell_address",
	"reason", "message_ids", "status", "attempts", "version", "created_at", "updated_at",
}

type NotificationRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewNotificationRepository(db *database.PostgresDB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
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

	insertQuery := r.sq.Insert("notifications").
		Columns(notificationColumns...).
		Values(notification.ID, notification.HostID, notification.SiteName, notification.DriveName,
			notification.FilePath, notification.SheetName, notification.Row,
			notification.Task, notification.ChatID, notification.ChatName,
			notification.OwnerID, notification.OwnerEmail, notification.OwnerName,
			notification.CellAddress, notification.Reason, notification.MessageIDs,
			notification.Status, notification.Attempts, notification.Version,
			notification.CreatedAt, notification.UpdatedAt)

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "вставка уведомления", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение уведомления", Cause: err}
	}

	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск уведомления", Cause: err}
	}

	notification, err := scanNotification(querier.QueryRow(ctx, query, args...))
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
	query, args, err := r.sq.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{
			"host_id":    key.HostID,
			"site_name":  key.SiteName,
			"drive_name": key.DriveName,
			"file_path":  key.FilePath,
			"sheet_name": key.SheetName,
			"row_index":  key.Row,
			"reason":     key.Reason,
		}).
		OrderBy(fmt.Sprintf("(status = '%s')", models.NotificationCompleted), "created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск уведомления по ключу", Cause: err}
	}

	notification, err := scanNotification(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrNotificationNotFound{NotificationID: key.FilePath}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск уведомления по ключу", Cause: err}
	}

	return notification, nil
}

func (r *NotificationRepository) FindByStatus(ctx context.Context, status models.NotificationStatus) ([]*models.Notification, error) {
	return r.findBy(ctx, sq.Eq{"status": status}, "created_at")
}

func (r *NotificationRepository) FindActiveByHost(ctx context.Context, hostID string) ([]*models.Notification, error) {
	return r.findBy(ctx, sq.And{
		sq.Eq{"host_id": hostID},
		sq.NotEq{"status": models.NotificationCompleted},
	}, "created_at")
}

func (r *NotificationRepository) FindActiveByFile(ctx context.Context, hostID string, loc models.FileLocation) ([]*models.Notification, error) {
	return r.findBy(ctx, sq.And{
		sq.Eq{
			"host_id":    hostID,
			"site_name":  loc.SiteName,
			"drive_name": loc.DriveName,
			"file_path":  loc.FilePath,
		},
		sq.NotEq{"status": models.NotificationCompleted},
	}, "row_index")
}

func (r *NotificationRepository) findBy(ctx context.Context, pred any, orderBy string) ([]*models.Notification, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(notificationColumns...).
		From("notifications").
		Where(pred).
		OrderBy(orderBy).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка уведомлений", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка уведомлений", Cause: err}
	}
	defer rows.Close()

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

func (r *NotificationRepository) Update(ctx context.Context, notification *models.Notification) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	notification.UpdatedAt = time.Now()

	if notification.MessageIDs == nil {
		notification.MessageIDs = []string{}
	}

	updateQuery := r.sq.Update("notifications").
		Set("task", notification.Task).
		Set("chat_id", notification.ChatID).
		Set("chat_name", notification.ChatName).
		Set("owner_id", notification.OwnerID).
		Set("owner_email", notification.OwnerEmail).
		Set("owner_name", notification.OwnerName).
		Set("cell_address", notification.CellAddress).
		Set("message_ids", notification.MessageIDs).
		Set("status", notification.Status).
		Set("attempts", notification.Attempts).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", notification.UpdatedAt).
		Where(sq.Eq{"id": notification.ID, "version": notification.Version})

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "обновление уведомления", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
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

	query, args, err := r.sq.Delete("notifications").
		Where(sq.Eq{
			"host_id":    hostID,
			"site_name":  loc.SiteName,
			"drive_name": loc.DriveName,
			"file_path":  loc.FilePath,
		}).
		ToSql()
	if err != nil {
		return 0, &customerrors.ErrBuildSQLQuery{Operation: "удаление уведомлений файла", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return 0, &customerrors.ErrSQLExecution{Operation: "удаление уведомлений файла", Cause: err}
	}

	return tag.RowsAffected(), nil
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
