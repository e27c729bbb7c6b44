package orm

import (
	"context"
	"encoding/json"
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

type MeetingRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewMeetingRepository(db *database.PostgresDB) *MeetingRepository {
	return &MeetingRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var meetingColumns = []string{
	"id", "host_email", "host_id", "title", "description", "duration",
	"window_start", "window_end", "time_zone", "candidate_slots", "current_slot",
	"status", "responses", "selected_slot", "version", "created_at", "updated_at",
}

func (r *MeetingRepository) Save(ctx context.Context, meeting *models.Meeting) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	slots, err := json.Marshal(meeting.CandidateSlots)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации кандидатных слотов: %w", err)
	}

	responses, err := json.Marshal(meeting.Responses)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации ответов участников: %w", err)
	}

	var selected []byte
	if meeting.SelectedSlot != nil {
		if selected, err = json.Marshal(meeting.SelectedSlot); err != nil {
			return fmt.Errorf("ошибка при сериализации выбранного слота: %w", err)
		}
	}

	now := time.Now()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}

	meeting.UpdatedAt = now
	meeting.Version = 1

	insertQuery := r.sq.Insert("meetings").
		Columns(meetingColumns...).
		Values(meeting.ID, meeting.HostEmail, meeting.HostID, meeting.Title,
			meeting.Description, meeting.Duration, meeting.WindowStart, meeting.WindowEnd,
			meeting.TimeZone, slots, meeting.CurrentSlot, meeting.Status,
			responses, selected, meeting.Version, meeting.CreatedAt, meeting.UpdatedAt)

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "вставка встречи", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение встречи", Cause: err}
	}

	return nil
}

func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	return r.findByID(ctx, id, "")
}

func (r *MeetingRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Meeting, error) {
	return r.findByID(ctx, id, "FOR UPDATE")
}

func (r *MeetingRepository) findByID(ctx context.Context, id, suffix string) (*models.Meeting, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select(meetingColumns...).From("meetings").Where(sq.Eq{"id": id})
	if suffix != "" {
		selectQuery = selectQuery.Suffix(suffix)
	}

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск встречи", Cause: err}
	}

	meeting, err := scanMeeting(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrMeetingNotFound{MeetingID: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск встречи", Cause: err}
	}

	return meeting, nil
}

func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	slots, err := json.Marshal(meeting.CandidateSlots)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации кандидатных слотов: %w", err)
	}

	responses, err := json.Marshal(meeting.Responses)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации ответов участников: %w", err)
	}

	var selected []byte
	if meeting.SelectedSlot != nil {
		if selected, err = json.Marshal(meeting.SelectedSlot); err != nil {
			return fmt.Errorf("ошибка при сериализации выбранного слота: %w", err)
		}
	}

	meeting.UpdatedAt = time.Now()

	updateQuery := r.sq.Update("meetings").
		Set("current_slot", meeting.CurrentSlot).
		Set("status", meeting.Status).
		Set("responses", responses).
		Set("selected_slot", selected).
		Set("candidate_slots", slots).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", meeting.UpdatedAt).
		Where(sq.Eq{"id": meeting.ID, "version": meeting.Version})

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "обновление встречи", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление встречи", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrVersionConflict{Entity: "встреча", ID: meeting.ID}
	}

	meeting.Version++

	return nil
}

func (r *MeetingRepository) FindByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select(meetingColumns...).
		From("meetings").
		Where(sq.Eq{"status": status}).
		OrderBy("created_at")

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка встреч по статусу", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка встреч по статусу", Cause: err}
	}
	defer rows.Close()

	var meetings []*models.Meeting

	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "встреча", Cause: err}
		}

		meetings = append(meetings, meeting)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход выборки встреч", Cause: err}
	}

	return meetings, nil
}

func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	deleteQuery := r.sq.Delete("meetings").Where(sq.Eq{"id": id})

	query, args, err := deleteQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "удаление встречи", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление встречи", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrMeetingNotFound{MeetingID: id}
	}

	return nil
}

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	meeting := &models.Meeting{}

	var slots, responses, selected []byte

	err := row.Scan(&meeting.ID, &meeting.HostEmail, &meeting.HostID, &meeting.Title,
		&meeting.Description, &meeting.Duration, &meeting.WindowStart, &meeting.WindowEnd,
		&meeting.TimeZone, &slots, &meeting.CurrentSlot, &meeting.Status,
		&responses, &selected, &meeting.Version, &meeting.CreatedAt, &meeting.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(slots, &meeting.CandidateSlots); err != nil {
		return nil, fmt.Errorf("ошибка при десериализации кандидатных слотов: %w", err)
	}

	if err := json.Unmarshal(responses, &meeting.Responses); err != nil {
		return nil, fmt.Errorf("ошибка при десериализации ответов участников: %w", err)
	}

	if len(selected) > 0 {
		meeting.SelectedSlot = &models.TimeSlot{}
		if err := json.Unmarshal(selected, meeting.SelectedSlot); err != nil {
			return nil, fmt.Errorf("ошибка при десериализации выбранного слота: %w", err)
		}
	}

	return meeting, nil
}
