package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/meeting/service"
)

type MeetingService interface {
	Schedule(ctx context.Context, req *service.ScheduleRequest) (*models.Meeting, error)
	RecordResponse(ctx context.Context, meetingID, userID string, status models.ResponseStatus) error
	Advance(ctx context.Context, meetingID string) error
	Delete(ctx context.Context, meetingID string) error
	Status(ctx context.Context, meetingID string) (*models.Meeting, error)
}

type Handler struct {
	service MeetingService
	logger  *slog.Logger
}

func NewHandler(svc MeetingService, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /meetings", h.scheduleMeeting)
	mux.HandleFunc("GET /meetings/{id}", h.meetingStatus)
	mux.HandleFunc("DELETE /meetings/{id}", h.deleteMeeting)
	mux.HandleFunc("GET /meetings/webhook/response", h.meetingResponse)
}

type scheduleRequest struct {
	HostEmail   string    `json:"hostEmail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	TimeZone    string    `json:"timeZone"`
	Attendees   []string  `json:"attendees"`
}

func (h *Handler) scheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	meeting, err := h.service.Schedule(r.Context(), &service.ScheduleRequest{
		HostEmail:   req.HostEmail,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		TimeZone:    req.TimeZone,
		Attendees:   req.Attendees,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, meetingStatusResponse(meeting))
}

func (h *Handler) meetingStatus(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.service.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, meetingStatusResponse(meeting))
}

func (h *Handler) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// meetingResponse — вебхук, на который ведут кнопки в карточке приглашения.
func (h *Handler) meetingResponse(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	meetingID := r.URL.Query().Get("uuid")
	responseStr := r.URL.Query().Get("response")

	if userID == "" || meetingID == "" || responseStr == "" {
		h.writeError(w, http.StatusBadRequest, "отсутствуют обязательные параметры")
		return
	}

	status, ok := models.ParseResponseStatus(responseStr)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "неизвестный вариант ответа: "+responseStr)
		return
	}

	if err := h.service.RecordResponse(r.Context(), meetingID, userID, status); err != nil {
		h.handleServiceError(w, err)
		return
	}

	if err := h.service.Advance(r.Context(), meetingID); err != nil {
		h.logger.Error("Ошибка при пересмотре состояния встречи после ответа",
			"meetingID", meetingID,
			"error", err)
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"response": responseStr,
	})
}

func meetingStatusResponse(meeting *models.Meeting) map[string]any {
	attendees := make([]map[string]any, 0, len(meeting.Responses))

	for email, resp := range meeting.Responses {
		attendees = append(attendees, map[string]any{
			"email":        email,
			"status":       resp.Status,
			"responseTime": resp.RespondedAt,
		})
	}

	return map[string]any{
		"id":           meeting.ID,
		"status":       meeting.Status,
		"currentSlot":  meeting.CurrentSlot,
		"attendees":    attendees,
		"selectedTime": meeting.SelectedSlot,
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var (
		notFound     *customerrors.ErrMeetingNotFound
		attendee     *customerrors.ErrAttendeeNotFound
		invalidArg   *customerrors.ErrInvalidArgument
		noSlots      *customerrors.ErrNoSlotsFound
		invalidState *customerrors.ErrInvalidMeetingState
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &attendee):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidArg), errors.As(err, &noSlots), errors.As(err, &invalidState):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка при обработке запроса", "error", err)
		h.writeError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Ошибка при сериализации ответа", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
