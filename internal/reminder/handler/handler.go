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
	"github.com/nebulap8/teams-automation/internal/reminder/repository"
)

type SheetScanner interface {
	Scan(ctx context.Context, hostID string, loc models.FileLocation, sheetName string, notifyInterval time.Duration) (*models.TrackedFile, int, error)
}

type FileTracker interface {
	Track(ctx context.Context, trackedFileID string) error
	Untrack(ctx context.Context, trackedFileID string) error
}

type Handler struct {
	scanner          SheetScanner
	tracker          FileTracker
	trackedFileRepo  repository.TrackedFileRepository
	notificationRepo repository.NotificationRepository
	logger           *slog.Logger
}

func NewHandler(
	scanner SheetScanner,
	tracker FileTracker,
	trackedFileRepo repository.TrackedFileRepository,
	notificationRepo repository.NotificationRepository,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		scanner:          scanner,
		tracker:          tracker,
		trackedFileRepo:  trackedFileRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /reminders/track", h.trackFile)
	mux.HandleFunc("GET /reminders/files", h.listFiles)
	mux.HandleFunc("GET /reminders/files/{id}/notifications", h.listNotifications)
	mux.HandleFunc("DELETE /reminders/files/{id}", h.untrackFile)
}

type trackRequest struct {
	HostID         string `json:"hostId"`
	SiteName       string `json:"siteName"`
	DriveName      string `json:"driveName"`
	FilePath       string `json:"filePath"`
	SheetName      string `json:"sheetName"`
	NotifyInterval string `json:"notifyInterval"`
}

func (h *Handler) trackFile(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	if req.HostID == "" || req.DriveName == "" || req.FilePath == "" || req.SheetName == "" {
		h.writeError(w, http.StatusBadRequest, "отсутствуют обязательные поля")
		return
	}

	interval, err := time.ParseDuration(req.NotifyInterval)
	if err != nil || interval <= 0 {
		h.writeError(w, http.StatusBadRequest, "некорректный интервал напоминаний")
		return
	}

	loc := models.FileLocation{
		SiteName:  req.SiteName,
		DriveName: req.DriveName,
		FilePath:  req.FilePath,
	}

	file, upserted, err := h.scanner.Scan(r.Context(), req.HostID, loc, req.SheetName, interval)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if file == nil {
		h.writeError(w, http.StatusBadRequest, "лист не содержит данных для наблюдения")
		return
	}

	if err := h.tracker.Track(r.Context(), file.ID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"fileId":   file.ID,
		"upserted": upserted,
	})
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.trackedFileRepo.GetAll(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	payload := make([]map[string]any, 0, len(files))

	for _, file := range files {
		payload = append(payload, map[string]any{
			"id":             file.ID,
			"driveName":      file.DriveName,
			"filePath":       file.FilePath,
			"sheetName":      file.SheetName,
			"notifyInterval": file.NotifyInterval.String(),
			"lastNotifiedAt": file.LastNotifiedAt,
			"nextNotifyAt":   file.NextNotifyAt,
		})
	}

	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	file, err := h.trackedFileRepo.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	notifications, err := h.notificationRepo.FindActiveByFile(r.Context(), file.HostID, models.FileLocation{
		SiteName:  file.SiteName,
		DriveName: file.DriveName,
		FilePath:  file.FilePath,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	payload := make([]map[string]any, 0, len(notifications))

	for _, n := range notifications {
		payload = append(payload, map[string]any{
			"id":       n.ID,
			"task":     n.Task,
			"row":      n.Row,
			"reason":   n.Reason,
			"status":   n.Status,
			"owner":    n.OwnerEmail,
			"attempts": n.Attempts,
		})
	}

	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) untrackFile(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Untrack(r.Context(), r.PathValue("id")); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var (
		fileNotFound *customerrors.ErrTrackedFileNotFound
		chatNotFound *customerrors.ErrChatNotFound
		invalidArg   *customerrors.ErrInvalidArgument
	)

	switch {
	case errors.As(err, &fileNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &chatNotFound), errors.As(err, &invalidArg):
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
