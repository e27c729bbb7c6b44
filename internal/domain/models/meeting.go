package models

import (
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/errors"
)

type MeetingStatus string

const (
	MeetingPending MeetingStatus = "pending"
	MeetingWaiting MeetingStatus = "waiting"
	MeetingDone    MeetingStatus = "done"
	MeetingFailed  MeetingStatus = "failed"
)

type ResponseStatus string

const (
	ResponsePending   ResponseStatus = "pending"
	ResponseAccepted  ResponseStatus = "accepted"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseTentative ResponseStatus = "tentative"
)

func ParseResponseStatus(s string) (ResponseStatus, bool) {
	switch ResponseStatus(s) {
	case ResponsePending, ResponseAccepted, ResponseDeclined, ResponseTentative:
		return ResponseStatus(s), true
	default:
		return "", false
	}
}

type TimeSlot struct {
	Start                time.Time         `json:"start"`
	End                  time.Time         `json:"end"`
	Confidence           float64           `json:"confidence"`
	AttendeeAvailability map[string]string `json:"attendeeAvailability,omitempty"`
}

type AttendeeResponse struct {
	Status      ResponseStatus `json:"status"`
	RespondedAt *time.Time     `json:"respondedAt,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	ChatID      string         `json:"chatId,omitempty"`
}

type Meeting struct {
	ID             string
	HostEmail      string
	HostID         string
	Title          string
	Description    string
	Duration       int
	WindowStart    time.Time
	WindowEnd      time.Time
	TimeZone       string
	CandidateSlots []TimeSlot
	CurrentSlot    int
	Status         MeetingStatus
	Responses      map[string]*AttendeeResponse
	SelectedSlot   *TimeSlot
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m *Meeting) ResponseSummary() map[ResponseStatus]int {
	summary := map[ResponseStatus]int{
		ResponsePending:   0,
		ResponseAccepted:  0,
		ResponseDeclined:  0,
		ResponseTentative: 0,
	}

	for _, resp := range m.Responses {
		summary[resp.Status]++
	}

	return summary
}

func (m *Meeting) CurrentCandidate() *TimeSlot {
	if m.CurrentSlot < 0 || m.CurrentSlot >= len(m.CandidateSlots) {
		return nil
	}

	slot := m.CandidateSlots[m.CurrentSlot]

	return &slot
}

// TryNext переводит встречу на следующий кандидатный слот и сбрасывает все ответы.
// Возвращает ErrSlotsExhausted, если слоты закончились.
func (m *Meeting) TryNext() error {
	if m.CurrentSlot >= len(m.CandidateSlots)-1 {
		return &errors.ErrSlotsExhausted{MeetingID: m.ID}
	}

	m.CurrentSlot++

	for email := range m.Responses {
		m.Responses[email].Status = ResponsePending
		m.Responses[email].RespondedAt = nil
	}

	return nil
}

func (m *Meeting) SetResponse(email string, status ResponseStatus, at time.Time) error {
	resp, ok := m.Responses[email]
	if !ok {
		return &errors.ErrAttendeeNotFound{MeetingID: m.ID, Attendee: email}
	}

	resp.Status = status
	resp.RespondedAt = &at

	return nil
}

func (m *Meeting) AttendeeByUserID(userID string) (string, bool) {
	for email, resp := range m.Responses {
		if resp.UserID == userID {
			return email, true
		}
	}

	return "", false
}

type AttendeeData struct {
	Email  string
	UserID string
	ChatID string
}
