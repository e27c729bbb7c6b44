package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nebulap8/teams-automation/internal/database"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/pkg/txs"
)

type MeetingRepository struct {
	db *database.PostgresDB
}

func NewMeetingRepository(db *database.PostgresDB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, host_email, host_id, title, description, duration,
	window_start, window_end, time_zone, candidate_slots, current_slot, status,
	responses, selected_slot, version, created_at, updated_at`

func (r *MeetingRepository) Save(ctx context.Context, meeting *models.Meeting) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	slots, responses, selected, err := marshalMeetingJSON(meeting)
	if err != nil {
		return err
	}

	now := time.Now()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}

	meeting.UpdatedAt = now
	meeting.Version = 1

	_, err = querier.Exec(ctx,
		`INSERT INTO meetings (id, host_email, host_id, title, description, duration,
			window_start, window_end, time_zone, candidate_slots, current_slot, status,
			responses, selected_slot, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		meeting.ID, meeting.HostEmail, meeting.HostID, meeting.Title, meeting.Description,
		meeting.Duration, meeting.WindowStart, meeting.WindowEnd, meeting.TimeZone,
		slots, meeting.CurrentSlot, meeting.Status, responses, selected,
		meeting.Version, meeting.CreatedAt, meeting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении встречи: %w", err)
	}

	return nil
}

func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	return r.findByID(ctx, id, false)
}

func (r *MeetingRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Meeting, error) {
	return r.findByID(ctx, id, true)
}

func (r *MeetingRepository) findByID(ctx context.Context, id string, forUpdate bool) (*models.Meeting, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query := "SELECT " + meetingColumns + " FROM meetings WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	meeting, err := scanMeeting(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrMeetingNotFound{MeetingID: id}
		}

		return nil, fmt.Errorf("ошибка при поиске встречи: %w", err)
	}

	return meeting, nil
}

func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	slots, responses, selected, err := marshalMeetingJSON(meeting)
	if err != nil {
		return err
	}

	meeting.UpdatedAt = time.Now()

	tag, err := querier.Exec(ctx,
		`UPDATE meetings SET current_slot = $1, status = $2, responses = $3,
			selected_slot = $4, candidate_slots = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8`,
		meeting.CurrentSlot, meeting.Status, responses, selected, slots,
		meeting.UpdatedAt, meeting.ID, meeting.Version)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении встречи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrVersionConflict{Entity: "встреча", ID: meeting.ID}
	}

	meeting.Version++

	return nil
}

func (r *MeetingRepository) FindByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		"SELECT "+meetingColumns+" FROM meetings WHERE status = $1 ORDER BY created_at",
		status)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выборке встреч по статусу: %w", err)
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
		return nil, fmt.Errorf("ошибка при обработке результатов выборки встреч: %w", err)
	}

	return meetings, nil
}

func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, "DELETE FROM meetings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("ошибка при удалении встречи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrMeetingNotFound{MeetingID: id}
	}

	return nil
}

func marshalMeetingJSON(meeting *models.Meeting) (slots, responses, selected []byte, err error) {
	slots, err = json.Marshal(meeting.CandidateSlots)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка при сериализации кандидатных слотов: %w", err)
	}

	responses, err = json.Marshal(meeting.Responses)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка при сериализации ответов участников: %w", err)
	}

	if meeting.SelectedSlot != nil {
		selected, err = json.Marshal(meeting.SelectedSlot)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ошибка при сериализации выбранного слота: %w", err)
		}
	}

	return slots, responses, selected, nil
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
