package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/nebulap8/teams-automation/internal/common/metrics"
	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/clients"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/reminder/repository"
)

type Dispatcher struct {
	notificationRepo repository.NotificationRepository
	chatClient       clients.ChatClient
	limiter          *rate.Limiter
	maxAttempts      int
	baseBackoff      time.Duration
	logger           *slog.Logger
}

func NewDispatcher(
	notificationRepo repository.NotificationRepository,
	chatClient clients.ChatClient,
	cfg *config.Config,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		notificationRepo: notificationRepo,
		chatClient:       chatClient,
		limiter:          rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendRatePerSecond),
		maxAttempts:      cfg.DispatchMaxAttempts,
		baseBackoff:      cfg.DispatchBaseBackoff,
		logger:           logger,
	}
}

// Dispatch отправляет напоминание в групповой чат. Ответ 429 считается
// временным сбоем и повторяется с экспоненциальной задержкой и джиттером;
// исчерпание попыток и любой другой сбой переводят уведомление в FAILED,
// следующее сканирование вернёт его в PENDING.
func (d *Dispatcher) Dispatch(ctx context.Context, notificationID string) error {
	notification, err := d.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}

	if notification.Status == models.NotificationCompleted {
		return nil
	}

	payload := buildReminderPayload(notification)

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ожидание лимитера прервано: %w", err)
		}

		messageID, sendErr := d.chatClient.SendMessage(ctx, notification.ChatID, payload)
		if sendErr == nil {
			notification.MessageIDs = append(notification.MessageIDs, messageID)
			notification.Status = models.NotificationSent
			notification.Attempts = attempt

			if err := d.notificationRepo.Update(ctx, notification); err != nil {
				return err
			}

			metrics.NotificationsDispatched.WithLabelValues("sent").Inc()

			d.logger.Info("Напоминание отправлено",
				"notificationID", notificationID,
				"task", notification.Task,
				"attempt", attempt)

			return nil
		}

		if !isTransient(sendErr) {
			d.logger.Error("Неустранимая ошибка при отправке напоминания",
				"notificationID", notificationID,
				"error", sendErr)

			return d.markFailed(ctx, notification, attempt, sendErr)
		}

		if attempt == d.maxAttempts {
			d.logger.Error("Попытки отправки напоминания исчерпаны",
				"notificationID", notificationID,
				"attempts", attempt)

			return d.markFailed(ctx, notification, attempt, sendErr)
		}

		metrics.DispatchRetries.Inc()

		backoff := d.backoff(attempt)

		d.logger.Warn("Превышен лимит запросов, повтор отправки",
			"notificationID", notificationID,
			"attempt", attempt,
			"backoff", backoff.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil
}

// DispatchFile отправляет все незавершённые напоминания по файлу.
func (d *Dispatcher) DispatchFile(ctx context.Context, hostID string, loc models.FileLocation) error {
	notifications, err := d.notificationRepo.FindActiveByFile(ctx, hostID, loc)
	if err != nil {
		return err
	}

	for _, notification := range notifications {
		if notification.Status == models.NotificationSent {
			continue
		}

		if err := d.Dispatch(ctx, notification.ID); err != nil {
			d.logger.Error("Ошибка при отправке напоминания",
				"notificationID", notification.ID,
				"error", err)
		}
	}

	return nil
}

func (d *Dispatcher) markFailed(ctx context.Context, notification *models.Notification, attempts int, cause error) error {
	notification.Status = models.NotificationFailed
	notification.Attempts = attempts

	if err := d.notificationRepo.Update(ctx, notification); err != nil {
		return err
	}

	metrics.NotificationsDispatched.WithLabelValues("failed").Inc()

	return fmt.Errorf("не удалось отправить напоминание %s: %w", notification.ID, cause)
}

// backoff: base * 2^(n-1) плюс случайный джиттер до половины базы.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	backoff := d.baseBackoff << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(d.baseBackoff)/2 + 1))

	return backoff + jitter
}

func isTransient(err error) bool {
	var rateLimited *customerrors.ErrRateLimited
	if errors.As(err, &rateLimited) {
		return true
	}

	var httpErr *customerrors.HTTPError

	return errors.As(err, &httpErr) && httpErr.StatusCode >= 500
}

func buildReminderPayload(notification *models.Notification) *models.MessagePayload {
	if notification.OwnerResolved() {
		return &models.MessagePayload{
			ContentType: "html",
			Content: fmt.Sprintf(
				`<div>`+
					`<p>👋 <at id="0">%s</at>, please reply to this message.</p>`+
					`<p>💬 <i>(Your reply will be automatically recorded)</i></p>`+
					`<p>📄 <b>Sheet:</b> %s</p>`+
					`<p>📝 <b>Task:</b> %s</p>`+
					`<p>⚠️ <b>Reason:</b> %s</p>`+
					`</div>`,
				notification.OwnerName, notification.SheetName, notification.Task, notification.Reason),
			Mentions: []models.Mention{
				{
					ID:          0,
					UserID:      notification.OwnerID,
					DisplayName: notification.OwnerName,
				},
			},
		}
	}

	return &models.MessagePayload{
		ContentType: "html",
		Content: fmt.Sprintf(
			`<div>`+
				`<p>📄 <b>Sheet:</b> %s</p>`+
				`<p>📝 <b>Task:</b> %s</p>`+
				`<p>⚠️ <b>Reason:</b> %s</p>`+
				`</div>`,
			notification.SheetName, notification.Task, notification.Reason),
	}
}
