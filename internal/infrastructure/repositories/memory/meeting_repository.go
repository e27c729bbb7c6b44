package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type MeetingRepository struct {
	meetings map[string]*models.Meeting
	mu       sync.RWMutex
}

func NewMeetingRepository() *MeetingRepository {
	return &MeetingRepository{
		meetings: make(map[string]*models.Meeting),
	}
}

func (r *MeetingRepository) Save(ctx context.Context, meeting *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = time.Now()
	}

	meeting.UpdatedAt = time.Now()
	meeting.Version = 1

	r.meetings[meeting.ID] = copyMeeting(meeting)

	return nil
}

func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meeting, exists := r.meetings[id]
	if !exists {
		return nil, &errors.ErrMeetingNotFound{MeetingID: id}
	}

	return copyMeeting(meeting), nil
}

func (r *MeetingRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Meeting, error) {
	return r.FindByID(ctx, id)
}

func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.meetings[meeting.ID]
	if !exists {
		return &errors.ErrMeetingNotFound{MeetingID: meeting.ID}
	}

	if stored.Version != meeting.Version {
		return &errors.ErrVersionConflict{Entity: "встреча", ID: meeting.ID}
	}

	meeting.Version++
	meeting.UpdatedAt = time.Now()

	r.meetings[meeting.ID] = copyMeeting(meeting)

	return nil
}

func (r *MeetingRepository) FindByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var meetings []*models.Meeting

	for _, meeting := range r.meetings {
		if meeting.Status == status {
			meetings = append(meetings, copyMeeting(meeting))
		}
	}

	return meetings, nil
}

func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.meetings[id]; !exists {
		return &errors.ErrMeetingNotFound{MeetingID: id}
	}

	delete(r.meetings, id)

	return nil
}

func copyMeeting(meeting *models.Meeting) *models.Meeting {
	clone := *meeting

	clone.CandidateSlots = make([]models.TimeSlot, len(meeting.CandidateSlots))
	copy(clone.CandidateSlots, meeting.CandidateSlots)

	clone.Responses = make(map[string]*models.AttendeeResponse, len(meeting.Responses))

	for email, resp := range meeting.Responses {
		respCopy := *resp
		clone.Responses[email] = &respCopy
	}

	if meeting.SelectedSlot != nil {
		slot := *meeting.SelectedSlot
		clone.SelectedSlot = &slot
	}

	return &clone
}
