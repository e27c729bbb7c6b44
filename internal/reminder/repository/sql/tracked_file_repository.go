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

const trackedFileColumns = `id, host_id, site_name, drive_name, file_path, sheet_name,
	notify_interval, last_notified_at, next_notify_at, trigger_id, created_at, updated_at`

type TrackedFileRepository struct {
	db *database.PostgresDB
}

func NewTrackedFileRepository(db *database.PostgresDB) *TrackedFileRepository {
	return &TrackedFileRepository{db: db}
}

// Upsert сохраняет файл; при конфликте по расположению возвращает существующую запись.
func (r *TrackedFileRepository) Upsert(ctx context.Context, file *models.TrackedFile) (*models.TrackedFile, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	now := time.Now()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}

	file.UpdatedAt = now

	row := querier.QueryRow(ctx, `
		INSERT INTO tracked_files (`+trackedFileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (host_id, site_name, drive_name, file_path)
		DO UPDATE SET sheet_name = EXCLUDED.sheet_name,
			notify_interval = EXCLUDED.notify_interval,
			updated_at = EXCLUDED.updated_at
		RETURNING `+trackedFileColumns+`
	`, file.ID, file.HostID, file.SiteName, file.DriveName, file.FilePath, file.SheetName,
		file.NotifyInterval.Nanoseconds(), file.LastNotifiedAt, file.NextNotifyAt,
		file.TriggerID, file.CreatedAt, file.UpdatedAt)

	stored, err := scanTrackedFile(row)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "сохранение отслеживаемого файла", Cause: err}
	}

	return stored, nil
}

func (r *TrackedFileRepository) FindByID(ctx context.Context, id string) (*models.TrackedFile, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	row := querier.QueryRow(ctx, `
		SELECT `+trackedFileColumns+`
		FROM tracked_files
		WHERE id = $1
	`, id)

	file, err := scanTrackedFile(row)
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

	rows, err := querier.Query(ctx, `
		SELECT `+trackedFileColumns+`
		FROM tracked_files
		ORDER BY created_at
	`)
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
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, `
		UPDATE tracked_files
		SET last_notified_at = $1, next_notify_at = $2, updated_at = $3
		WHERE id = $4
	`, lastNotifiedAt, nextNotifyAt, time.Now(), id)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление времени запуска", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackedFileNotFound{FilePath: id}
	}

	return nil
}

func (r *TrackedFileRepository) SetTriggerID(ctx context.Context, id, triggerID string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, `
		UPDATE tracked_files
		SET trigger_id = $1, updated_at = $2
		WHERE id = $3
	`, triggerID, time.Now(), id)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление триггера файла", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackedFileNotFound{FilePath: id}
	}

	return nil
}

func (r *TrackedFileRepository) Delete(ctx context.Context, id string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, `
		DELETE FROM tracked_files
		WHERE id = $1
	`, id)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление отслеживаемого файла", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackedFileNotFound{FilePath: id}
	}

	return nil
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
