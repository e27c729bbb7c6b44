package orm

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nebulap8/teams-automation/internal/database"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/pkg/txs"
)

var trackedFileColumns = []string{
	"id", "host_id", "site_name", "drive_name", "file_path", "sheet_name",
	"notify_interval", "last_notified_at", "next_notify_at", "trigger_id",
	"created_at", "updated_at",
}

type TrackedFileRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewTrackedFileRepository(db *database.PostgresDB) *TrackedFileRepository {
	return &TrackedFileRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *TrackedFileRepository) Upsert(ctx context.Context, file *models.TrackedFile) (*models.TrackedFile, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	now := time.Now()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}

	file.UpdatedAt = now

	insertQuery := r.sq.Insert("tracked_files").
		Columns(trackedFileColumns...).
		Values(file.ID, file.HostID, file.SiteName, file.DriveName, file.FilePath, file.SheetName,
			file.NotifyInterval.Nanoseconds(), file.LastNotifiedAt, file.NextNotifyAt,
			file.TriggerID, file.CreatedAt, file.UpdatedAt).
		Suffix(`ON CONFLICT (host_id, site_name, drive_name, file_path)
			DO UPDATE SET sheet_name = EXCLUDED.sheet_name,
				notify_interval = EXCLUDED.notify_interval,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + columnList())

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "сохранение отслеживаемого файла", Cause: err}
	}

	stored, err := scanTrackedFile(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "сохранение отслеживаемого файла", Cause: err}
	}

	return stored, nil
}

func (r *TrackedFileRepository) FindByID(ctx context.Context, id string) (*models.TrackedFile, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(trackedFileColumns...).
		From("tracked_files").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск отслеживаемого файла", Cause: err}
	}

	file, err := scanTrackedFile(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrTrackedFileNotFound{FilePath: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск отслеживаемого файла", Cause: err}
	}

	return file, nil
}

func (r *TrackedFileRepository) GetAll(ctx context.Context) ([]*models.TrackedFile, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(trackedFileColumns...).
		From("tracked_files").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка отслеживаемых файлов", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка отслеживаемых файлов", Cause: err}
	}
	defer rows.Close()

	var files []*models.TrackedFile

	for rows.Next() {
		file, err := scanTrackedFile(rows)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "отслеживаемый файл", Cause: err}
		}

		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход выборки файлов", Cause: err}
	}

	return files, nil
}

func (r *TrackedFileRepository) UpdateRunTimes(ctx context.Context, id string, lastNotifiedAt, nextNotifyAt *time.Time) error {
	return r.update(ctx, id, "обновление времени запуска", map[string]any{
		"last_notified_at": lastNotifiedAt,
		"next_notify_at":   nextNotifyAt,
	})
}

func (r *TrackedFileRepository) SetTriggerID(ctx context.Context, id, triggerID string) error {
	return r.update(ctx, id, "обновление триггера файла", map[string]any{
		"trigger_id": triggerID,
	})
}

func (r *TrackedFileRepository) update(ctx context.Context, id, operation string, fields map[string]any) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	updateQuery := r.sq.Update("tracked_files").
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id})
	for column, value := range fields {
		updateQuery = updateQuery.Set(column, value)
	}

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: operation, Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: operation, Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackedFileNotFound{FilePath: id}
	}

	return nil
}

func (r *TrackedFileRepository) Delete(ctx context.Context, id string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Delete("tracked_files").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "удаление отслеживаемого файла", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление отслеживаемого файла", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackedFileNotFound{FilePath: id}
	}

	return nil
}

func columnList() string {
	return strings.Join(trackedFileColumns, ", ")
}

func scanTrackedFile(row pgx.Row) (*models.TrackedFile, error) {
	file := &models.TrackedFile{}

	var intervalNanos int64

	err := row.Scan(&file.ID, &file.HostID, &file.SiteName, &file.DriveName,
		&file.FilePath, &file.SheetName, &intervalNanos,
		&file.LastNotifiedAt, &file.NextNotifyAt, &file.TriggerID,
		&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return nil, err
	}

	file.NotifyInterval = time.Duration(intervalNanos)

	return file, nil
}
