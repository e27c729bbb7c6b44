package service_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nebulap8/teams-automation/internal/config"
	clientmocks "github.com/nebulap8/teams-automation/internal/domain/clients/mocks"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/infrastructure/repositories/memory"
	"github.com/nebulap8/teams-automation/internal/meeting/service"
	txsmocks "github.com/nebulap8/teams-automation/pkg/txs/mocks"
)

func newTestConfig() *config.Config {
	return &config.Config{
		WebhookBaseURL:  "http://localhost:8080",
		DefaultTimeZone: "UTC",
	}
}

func newPassthroughTxManager() *txsmocks.TxManager {
	mockTxManager := new(txsmocks.TxManager)
	mockTxManager.On("WithTransaction", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, txFunc func(ctx context.Context) error) error {
			return txFunc(ctx)
		})

	return mockTxManager
}

func saveWaitingMeeting(t *testing.T, repo *memory.MeetingRepository, slots int) *models.Meeting {
	t.Helper()

	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	candidates := make([]models.TimeSlot, 0, slots)

	for i := 0; i < slots; i++ {
		candidates = append(candidates, models.TimeSlot{
			Start: start.Add(time.Duration(i) * time.Hour),
			End:   start.Add(time.Duration(i)*time.Hour + 30*time.Minute),
		})
	}

	meeting := &models.Meeting{
		ID:             "meeting-1",
		HostEmail:      "host@example.com",
		Title:          "Обсуждение релиза",
		Duration:       30,
		TimeZone:       "UTC",
		CandidateSlots: candidates,
		CurrentSlot:    0,
		Status:         models.MeetingWaiting,
		Responses: map[string]*models.AttendeeResponse{
			"alice@example.com": {Status: models.ResponsePending, UserID: "user-alice", ChatID: "chat-alice"},
			"bob@example.com":   {Status: models.ResponsePending, UserID: "user-bob", ChatID: "chat-bob"},
		},
	}

	require.NoError(t, repo.Save(context.Background(), meeting))

	return meeting
}

func TestNegotiator_Schedule(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	mockChatClient := new(clientmocks.ChatClient)
	mockIdentityClient := new(clientmocks.IdentityClient)
	mockCalendarClient := new(clientmocks.CalendarClient)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	windowStart := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(8 * time.Hour)

	mockIdentityClient.On("ResolveByEmail", ctx, "alice@example.com").
		Return(&models.Identity{ID: "user-alice", Email: "alice@example.com", DisplayName: "Alice"}, nil)
	mockIdentityClient.On("ResolveByEmail", ctx, "bob@example.com").
		Return(&models.Identity{ID: "user-bob", Email: "bob@example.com", DisplayName: "Bob"}, nil)

	mockChatClient.On("GetOneOnOneChatID", ctx, "user-alice").Return("chat-alice", nil)
	mockChatClient.On("GetOneOnOneChatID", ctx, "user-bob").Return("chat-bob", nil)

	slots := []models.TimeSlot{
		{Start: windowStart.Add(time.Hour), End: windowStart.Add(90 * time.Minute), Confidence: 100},
		{Start: windowStart.Add(2 * time.Hour), End: windowStart.Add(150 * time.Minute), Confidence: 75},
	}
	mockCalendarClient.On("FindMeetingTimes", ctx, []string{"alice@example.com", "bob@example.com"}, windowStart, windowEnd, 30).
		Return(slots, nil)

	mockChatClient.On("SendMessage", ctx, "chat-alice", mock.MatchedBy(func(payload *models.MessagePayload) bool {
		return len(payload.Attachments) == 1 &&
			payload.Attachments[0].ContentType == "application/vnd.microsoft.card.adaptive" &&
			strings.Contains(payload.Content, `<attachment id="1">`)
	})).Return("msg-alice", nil)
	mockChatClient.On("SendMessage", ctx, "chat-bob", mock.Anything).Return("msg-bob", nil)

	negotiator := service.NewNegotiator(
		meetingRepo, mockChatClient, mockIdentityClient, mockCalendarClient,
		newPassthroughTxManager(), newTestConfig(), logger)

	meeting, err := negotiator.Schedule(ctx, &service.ScheduleRequest{
		HostEmail:   "host@example.com",
		Title:       "Обсуждение релиза",
		Duration:    30,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		TimeZone:    "UTC",
		Attendees:   []string{"alice@example.com", "bob@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.MeetingWaiting, meeting.Status)
	assert.Equal(t, 0, meeting.CurrentSlot)
	assert.Len(t, meeting.CandidateSlots, 2)
	assert.Len(t, meeting.Responses, 2)
	assert.Equal(t, models.ResponsePending, meeting.Responses["alice@example.com"].Status)

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingWaiting, stored.Status)

	mockChatClient.AssertNumberOfCalls(t, "SendMessage", 2)
	mockIdentityClient.AssertExpectations(t)
	mockCalendarClient.AssertExpectations(t)
}

func TestNegotiator_Schedule_PendingUntilInvitesSent(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	mockChatClient := new(clientmocks.ChatClient)
	mockIdentityClient := new(clientmocks.IdentityClient)
	mockCalendarClient := new(clientmocks.CalendarClient)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	windowStart := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(8 * time.Hour)

	mockIdentityClient.On("ResolveByEmail", ctx, "alice@example.com").
		Return(&models.Identity{ID: "user-alice", Email: "alice@example.com", DisplayName: "Alice"}, nil)
	mockChatClient.On("GetOneOnOneChatID", ctx, "user-alice").Return("chat-alice", nil)
	mockCalendarClient.On("FindMeetingTimes", ctx, []string{"alice@example.com"}, windowStart, windowEnd, 30).
		Return([]models.TimeSlot{
			{Start: windowStart.Add(time.Hour), End: windowStart.Add(90 * time.Minute), Confidence: 100},
		}, nil)

	// На момент рассылки приглашений встреча уже сохранена, но ещё pending:
	// в waiting она переходит только после разосланных приглашений.
	mockChatClient.On("SendMessage", ctx, "chat-alice", mock.Anything).
		Run(func(args mock.Arguments) {
			meetings, err := meetingRepo.FindByStatus(ctx, models.MeetingPending)
			require.NoError(t, err)
			require.Len(t, meetings, 1)
		}).
		Return("msg-alice", nil).Once()

	negotiator := service.NewNegotiator(
		meetingRepo, mockChatClient, mockIdentityClient, mockCalendarClient,
		newPassthroughTxManager(), newTestConfig(), logger)

	meeting, err := negotiator.Schedule(ctx, &service.ScheduleRequest{
		HostEmail:   "host@example.com",
		Title:       "Обсуждение релиза",
		Duration:    30,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		TimeZone:    "UTC",
		Attendees:   []string{"alice@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.MeetingWaiting, meeting.Status)

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingWaiting, stored.Status)
	assert.Equal(t, int64(2), stored.Version)

	pending, err := meetingRepo.FindByStatus(ctx, models.MeetingPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	mockChatClient.AssertExpectations(t)
}

func TestNegotiator_Schedule_NoAttendees(t *testing.T) {
	t.Parallel()

	negotiator := service.NewNegotiator(
		memory.NewMeetingRepository(),
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := negotiator.Schedule(context.Background(), &service.ScheduleRequest{
		HostEmail: "host@example.com",
		Title:     "Без участников",
	})

	require.Error(t, err)
	assert.IsType(t, &customerrors.ErrInvalidArgument{}, err)
}

func TestNegotiator_Schedule_NoSlots(t *testing.T) {
	t.Parallel()

	mockChatClient := new(clientmocks.ChatClient)
	mockIdentityClient := new(clientmocks.IdentityClient)
	mockCalendarClient := new(clientmocks.CalendarClient)

	ctx := context.Background()

	mockIdentityClient.On("ResolveByEmail", ctx, "alice@example.com").
		Return(&models.Identity{ID: "user-alice", Email: "alice@example.com"}, nil)
	mockChatClient.On("GetOneOnOneChatID", ctx, "user-alice").Return("chat-alice", nil)
	mockCalendarClient.On("FindMeetingTimes", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.TimeSlot{}, nil)

	negotiator := service.NewNegotiator(
		memory.NewMeetingRepository(), mockChatClient, mockIdentityClient, mockCalendarClient,
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := negotiator.Schedule(ctx, &service.ScheduleRequest{
		HostEmail: "host@example.com",
		Attendees: []string{"alice@example.com"},
	})

	require.Error(t, err)
	assert.IsType(t, &customerrors.ErrNoSlotsFound{}, err)
}

func TestNegotiator_Advance_DeclineMovesToNextSlot(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	mockChatClient := new(clientmocks.ChatClient)
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 2)

	mockChatClient.On("SendMessage", ctx, mock.Anything, mock.Anything).Return("msg-1", nil)

	negotiator := service.NewNegotiator(
		meetingRepo, mockChatClient,
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-alice", models.ResponseDeclined))
	require.NoError(t, negotiator.Advance(ctx, meeting.ID))

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingWaiting, stored.Status)
	assert.Equal(t, 1, stored.CurrentSlot)

	for email, resp := range stored.Responses {
		assert.Equalf(t, models.ResponsePending, resp.Status, "ответ %s должен быть сброшен", email)
	}

	// Повторная рассылка приглашений по новому слоту.
	mockChatClient.AssertNumberOfCalls(t, "SendMessage", 2)
}

func TestNegotiator_Advance_AllAcceptedBooksEvent(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	mockCalendarClient := new(clientmocks.CalendarClient)
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 2)

	mockCalendarClient.On("CreateEvent", ctx, meeting.Title, meeting.CandidateSlots[0],
		mock.MatchedBy(func(emails []string) bool {
			return len(emails) == 3 && assert.Contains(t, emails, "host@example.com")
		}), meeting.Description).Return("event-1", nil).Once()

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		mockCalendarClient,
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-alice", models.ResponseAccepted))
	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-bob", models.ResponseTentative))
	require.NoError(t, negotiator.Advance(ctx, meeting.ID))

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingDone, stored.Status)
	require.NotNil(t, stored.SelectedSlot)
	assert.Equal(t, meeting.CandidateSlots[0].Start, stored.SelectedSlot.Start)

	mockCalendarClient.AssertExpectations(t)
}

func TestNegotiator_Advance_SlotsExhausted(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 1)

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-bob", models.ResponseDeclined))
	require.NoError(t, negotiator.Advance(ctx, meeting.ID))

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingFailed, stored.Status)
	assert.Nil(t, stored.SelectedSlot)
}

func TestNegotiator_Advance_BookingFailureKeepsDone(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	mockCalendarClient := new(clientmocks.CalendarClient)
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 1)

	mockCalendarClient.On("CreateEvent", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &customerrors.HTTPError{StatusCode: 503})

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		mockCalendarClient,
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-alice", models.ResponseAccepted))
	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-bob", models.ResponseAccepted))
	require.NoError(t, negotiator.Advance(ctx, meeting.ID))

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingDone, stored.Status)
}

func TestNegotiator_RecordResponse_UnknownUser(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 2)

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := negotiator.RecordResponse(ctx, meeting.ID, "user-unknown", models.ResponseAccepted)

	require.Error(t, err)
	assert.ErrorIs(t, err, &customerrors.ErrAttendeeNotFound{})
}

func TestNegotiator_RecordResponse_IgnoredWhenNotWaiting(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 2)

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)

	stored.Status = models.MeetingDone
	require.NoError(t, meetingRepo.Update(ctx, stored))

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-alice", models.ResponseDeclined))

	after, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingDone, after.Status)
	assert.Equal(t, models.ResponsePending, after.Responses["alice@example.com"].Status)
}

func TestNegotiator_RecordResponse_OverwritesPrevious(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 2)

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-alice", models.ResponseTentative))
	require.NoError(t, negotiator.RecordResponse(ctx, meeting.ID, "user-alice", models.ResponseAccepted))

	stored, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseAccepted, stored.Responses["alice@example.com"].Status)
}

func TestNegotiator_Delete(t *testing.T) {
	t.Parallel()

	meetingRepo := memory.NewMeetingRepository()
	ctx := context.Background()

	meeting := saveWaitingMeeting(t, meetingRepo, 2)

	negotiator := service.NewNegotiator(
		meetingRepo,
		new(clientmocks.ChatClient),
		new(clientmocks.IdentityClient),
		new(clientmocks.CalendarClient),
		newPassthroughTxManager(), newTestConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, negotiator.Delete(ctx, meeting.ID))

	_, err := meetingRepo.FindByID(ctx, meeting.ID)
	require.Error(t, err)
	assert.IsType(t, &customerrors.ErrMeetingNotFound{}, err)
}
