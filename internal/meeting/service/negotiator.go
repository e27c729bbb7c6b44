package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nebulap8/teams-automation/internal/common/metrics"
	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/clients"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/meeting/repository"
)

type Transactor interface {
	WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error
}

type ScheduleRequest struct {
	HostEmail   string
	Title       string
	Description string
	Duration    int
	WindowStart time.Time
	WindowEnd   time.Time
	TimeZone    string
	Attendees   []string
}

type Negotiator struct {
	meetingRepo    repository.MeetingRepository
	chatClient     clients.ChatClient
	identityClient clients.IdentityClient
	calendarClient clients.CalendarClient
	txManager      Transactor
	config         *config.Config
	logger         *slog.Logger
}

func NewNegotiator(
	meetingRepo repository.MeetingRepository,
	chatClient clients.ChatClient,
	identityClient clients.IdentityClient,
	calendarClient clients.CalendarClient,
	txManager Transactor,
	cfg *config.Config,
	logger *slog.Logger,
) *Negotiator {
	return &Negotiator{
		meetingRepo:    meetingRepo,
		chatClient:     chatClient,
		identityClient: identityClient,
		calendarClient: calendarClient,
		txManager:      txManager,
		config:         cfg,
		logger:         logger,
	}
}

func (s *Negotiator) Schedule(ctx context.Context, req *ScheduleRequest) (*models.Meeting, error) {
	if len(req.Attendees) == 0 {
		return nil, &customerrors.ErrInvalidArgument{Message: "список участников не может быть пустым"}
	}

	attendees, err := s.resolveAttendees(ctx, req.Attendees)
	if err != nil {
		return nil, err
	}

	slots, err := s.calendarClient.FindMeetingTimes(ctx, req.Attendees, req.WindowStart, req.WindowEnd, req.Duration)
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске свободных слотов: %w", err)
	}

	if len(slots) == 0 {
		return nil, &customerrors.ErrNoSlotsFound{HostEmail: req.HostEmail}
	}

	meeting := &models.Meeting{
		ID:             uuid.NewString(),
		HostEmail:      req.HostEmail,
		Title:          req.Title,
		Description:    req.Description,
		Duration:       req.Duration,
		WindowStart:    req.WindowStart,
		WindowEnd:      req.WindowEnd,
		TimeZone:       req.TimeZone,
		CandidateSlots: slots,
		CurrentSlot:    0,
		Status:         models.MeetingPending,
		Responses:      make(map[string]*models.AttendeeResponse, len(attendees)),
	}

	for _, attendee := range attendees {
		meeting.Responses[attendee.Email] = &models.AttendeeResponse{
			Status: models.ResponsePending,
			UserID: attendee.UserID,
			ChatID: attendee.ChatID,
		}
	}

	if err := s.meetingRepo.Save(ctx, meeting); err != nil {
		return nil, err
	}

	s.informAttendees(ctx, meeting)

	// Встреча ожидает ответы только после разосланных приглашений.
	meeting.Status = models.MeetingWaiting

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}

	s.logger.Info("Встреча создана, ожидаем ответы участников",
		"meetingID", meeting.ID,
		"attendees", len(attendees),
		"slots", len(slots))

	metrics.MeetingTransitionsTotal.WithLabelValues("pending_waiting").Inc()
	metrics.WaitingMeetings.Inc()

	return meeting, nil
}

func (s *Negotiator) resolveAttendees(ctx context.Context, emails []string) ([]models.AttendeeData, error) {
	attendees := make([]models.AttendeeData, 0, len(emails))

	for _, email := range emails {
		identity, err := s.identityClient.ResolveByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("ошибка при определении участника %s: %w", email, err)
		}

		chatID, err := s.chatClient.GetOneOnOneChatID(ctx, identity.ID)
		if err != nil {
			s.logger.Warn("Личный чат с участником не найден",
				"email", email,
				"error", err)

			chatID = ""
		}

		attendees = append(attendees, models.AttendeeData{
			Email:  email,
			UserID: identity.ID,
			ChatID: chatID,
		})
	}

	return attendees, nil
}

func (s *Negotiator) RecordResponse(ctx context.Context, meetingID, userID string, status models.ResponseStatus) error {
	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		meeting, err := s.meetingRepo.FindByIDForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}

		if meeting.Status != models.MeetingWaiting {
			s.logger.Info("Ответ участника проигнорирован: встреча не в ожидании",
				"meetingID", meetingID,
				"status", meeting.Status)

			return nil
		}

		email, ok := meeting.AttendeeByUserID(userID)
		if !ok {
			return &customerrors.ErrAttendeeNotFound{MeetingID: meetingID, Attendee: userID}
		}

		if err := meeting.SetResponse(email, status, time.Now()); err != nil {
			return err
		}

		if err := s.meetingRepo.Update(ctx, meeting); err != nil {
			return err
		}

		metrics.MeetingResponsesTotal.WithLabelValues(string(status)).Inc()

		s.logger.Info("Ответ участника записан",
			"meetingID", meetingID,
			"email", email,
			"response", status)

		return nil
	})
}

// Advance пересматривает состояние встречи: отказ двигает её на следующий слот
// (или в failed, когда слоты исчерпаны), полный набор ответов без отказов
// завершает переговоры бронированием события.
func (s *Negotiator) Advance(ctx context.Context, meetingID string) error {
	var (
		informNeeded bool
		bookNeeded   bool
		snapshot     *models.Meeting
	)

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		meeting, err := s.meetingRepo.FindByIDForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}

		if meeting.Status != models.MeetingWaiting {
			return nil
		}

		summary := meeting.ResponseSummary()

		switch {
		case summary[models.ResponseDeclined] > 0:
			if err := meeting.TryNext(); err != nil {
				meeting.Status = models.MeetingFailed

				metrics.MeetingTransitionsTotal.WithLabelValues("waiting_failed").Inc()
				metrics.WaitingMeetings.Dec()

				s.logger.Warn("Кандидатные слоты исчерпаны, встреча не состоится",
					"meetingID", meetingID)
			} else {
				informNeeded = true

				metrics.MeetingTransitionsTotal.WithLabelValues("slot_advanced").Inc()

				s.logger.Info("Переход на следующий кандидатный слот",
					"meetingID", meetingID,
					"slot", meeting.CurrentSlot)
			}
		case summary[models.ResponsePending] == 0:
			meeting.Status = models.MeetingDone
			meeting.SelectedSlot = meeting.CurrentCandidate()
			bookNeeded = true

			metrics.MeetingTransitionsTotal.WithLabelValues("waiting_done").Inc()
			metrics.WaitingMeetings.Dec()

			s.logger.Info("Все участники ответили, встреча согласована",
				"meetingID", meetingID,
				"slot", meeting.CurrentSlot)
		default:
			return nil
		}

		if err := s.meetingRepo.Update(ctx, meeting); err != nil {
			return err
		}

		snapshot = meeting

		return nil
	})
	if err != nil {
		return err
	}

	// Исходящие вызовы выполняются после фиксации транзакции.
	if informNeeded {
		s.informAttendees(ctx, snapshot)
	}

	if bookNeeded {
		s.bookEvent(ctx, snapshot)
	}

	return nil
}

// AdvanceAll прогоняет Advance по всем ожидающим встречам.
func (s *Negotiator) AdvanceAll(ctx context.Context) error {
	meetings, err := s.meetingRepo.FindByStatus(ctx, models.MeetingWaiting)
	if err != nil {
		return err
	}

	for _, meeting := range meetings {
		if err := s.Advance(ctx, meeting.ID); err != nil {
			s.logger.Error("Ошибка при пересмотре состояния встречи",
				"meetingID", meeting.ID,
				"error", err)
		}
	}

	return nil
}

func (s *Negotiator) Status(ctx context.Context, meetingID string) (*models.Meeting, error) {
	return s.meetingRepo.FindByID(ctx, meetingID)
}

func (s *Negotiator) Delete(ctx context.Context, meetingID string) error {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return err
	}

	if err := s.meetingRepo.Delete(ctx, meetingID); err != nil {
		return err
	}

	if meeting.Status == models.MeetingWaiting {
		metrics.WaitingMeetings.Dec()
	}

	s.logger.Info("Встреча удалена", "meetingID", meetingID)

	return nil
}

func (s *Negotiator) informAttendees(ctx context.Context, meeting *models.Meeting) {
	slot := meeting.CurrentCandidate()
	if slot == nil {
		return
	}

	for email, resp := range meeting.Responses {
		if resp.ChatID == "" {
			s.logger.Warn("У участника нет личного чата, приглашение пропущено",
				"meetingID", meeting.ID,
				"email", email)

			continue
		}

		payload := buildInviteCard(meeting, *slot, resp.UserID, s.config.WebhookBaseURL)

		if _, err := s.chatClient.SendMessage(ctx, resp.ChatID, payload); err != nil {
			s.logger.Error("Не удалось отправить приглашение участнику",
				"meetingID", meeting.ID,
				"email", email,
				"error", err)

			continue
		}

		s.logger.Info("Приглашение отправлено",
			"meetingID", meeting.ID,
			"email", email)
	}
}

func (s *Negotiator) bookEvent(ctx context.Context, meeting *models.Meeting) {
	if meeting.SelectedSlot == nil {
		return
	}

	emails := make([]string, 0, len(meeting.Responses)+1)
	for email := range meeting.Responses {
		emails = append(emails, email)
	}

	emails = append(emails, meeting.HostEmail)

	if _, err := s.calendarClient.CreateEvent(ctx, meeting.Title, *meeting.SelectedSlot, emails, meeting.Description); err != nil {
		s.logger.Error("Не удалось забронировать событие в календаре",
			"meetingID", meeting.ID,
			"error", err)
	}
}

func buildInviteCard(meeting *models.Meeting, slot models.TimeSlot, userID, baseURL string) *models.MessagePayload {
	loc, err := time.LoadLocation(meeting.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	responseURL := fmt.Sprintf("%s/meetings/webhook/response", baseURL)

	card := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.4",
		"body": []map[string]any{
			{
				"type":   "TextBlock",
				"text":   fmt.Sprintf("📢 Приглашение на встречу: %s", meeting.Title),
				"weight": "Bolder",
				"size":   "Medium",
			},
			{
				"type": "TextBlock",
				"text": fmt.Sprintf("🕒 Время: %s ~ %s",
					slot.Start.In(loc).Format("2006-01-02 15:04"),
					slot.End.In(loc).Format("2006-01-02 15:04")),
			},
		},
		"actions": []map[string]any{
			{
				"type":  "Action.OpenUrl",
				"title": "✅ Принять",
				"url":   fmt.Sprintf("%s?userId=%s&uuid=%s&response=accepted", responseURL, userID, meeting.ID),
			},
			{
				"type":  "Action.OpenUrl",
				"title": "❌ Отклонить",
				"url":   fmt.Sprintf("%s?userId=%s&uuid=%s&response=declined", responseURL, userID, meeting.ID),
			},
		},
	}

	cardJSON, _ := json.Marshal(card)

	content := meeting.Description
	if content == "" {
		content = "Это сообщение отправлено автоматически."
	}

	return &models.MessagePayload{
		ContentType: "html",
		Content:     content + `<attachment id="1"></attachment>`,
		Attachments: []models.MessageAttachment{
			{
				ID:          "1",
				ContentType: "application/vnd.microsoft.card.adaptive",
				Content:     string(cardJSON),
			},
		},
	}
}
