package service

import (
	"context"
	"log/slog"

	"github.com/nebulap8/teams-automation/internal/common/metrics"
	"github.com/nebulap8/teams-automation/internal/domain/clients"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/gateway"
	"github.com/nebulap8/teams-automation/internal/reminder/repository"
)

type Reconciler struct {
	notificationRepo repository.NotificationRepository
	chatClient       clients.ChatClient
	sheetClient      clients.SheetClient
	logger           *slog.Logger
}

func NewReconciler(
	notificationRepo repository.NotificationRepository,
	chatClient clients.ChatClient,
	sheetClient clients.SheetClient,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		notificationRepo: notificationRepo,
		chatClient:       chatClient,
		sheetClient:      sheetClient,
		logger:           logger,
	}
}

// Reconcile ищет ответы на отправленные напоминания и переносит первый
// подходящий в исходную ячейку. Транскрипт каждого чата запрашивается один раз,
// сколько бы уведомлений на него ни ссылалось.
func (r *Reconciler) Reconcile(ctx context.Context, hostID string) error {
	notifications, err := r.notificationRepo.FindActiveByHost(ctx, hostID)
	if err != nil {
		return err
	}

	if len(notifications) == 0 {
		r.logger.Info("Нет уведомлений, ожидающих ответа", "hostID", hostID)
		return nil
	}

	chatGroups := make(map[string][]*models.Notification)

	for _, notification := range notifications {
		if notification.ChatID == "" || len(notification.MessageIDs) == 0 {
			continue
		}

		chatGroups[notification.ChatID] = append(chatGroups[notification.ChatID], notification)
	}

	for chatID, items := range chatGroups {
		messages, err := r.chatClient.FetchMessages(ctx, chatID)
		if err != nil {
			r.logger.Warn("Не удалось получить сообщения чата",
				"chatID", chatID,
				"error", err)

			continue
		}

		for _, notification := range items {
			if err := r.reconcileOne(ctx, notification, messages); err != nil {
				r.logger.Error("Ошибка при обработке ответа на напоминание",
					"notificationID", notification.ID,
					"task", notification.Task,
					"error", err)
			}
		}
	}

	return nil
}

// reconcileOne записывает первый подходящий ответ и завершает уведомление.
func (r *Reconciler) reconcileOne(ctx context.Context, notification *models.Notification, messages []*models.ChatMessage) error {
	reply := findReply(notification, messages)
	if reply == nil {
		return nil
	}

	content := gateway.StripMarkup(reply.Body)

	loc := models.FileLocation{
		SiteName:  notification.SiteName,
		DriveName: notification.DriveName,
		FilePath:  notification.FilePath,
	}

	if err := r.sheetClient.WriteCell(ctx, loc, notification.SheetName, notification.CellAddress, content); err != nil {
		return err
	}

	notification.Status = models.NotificationCompleted

	if err := r.notificationRepo.Update(ctx, notification); err != nil {
		return err
	}

	metrics.RepliesReconciled.Inc()

	r.logger.Info("Ответ записан в таблицу",
		"notificationID", notification.ID,
		"task", notification.Task,
		"cell", notification.CellAddress)

	return nil
}

// findReply: ответом считается сообщение со ссылкой на одно из отправленных
// напоминаний; когда владелец известен, автор должен совпадать.
func findReply(notification *models.Notification, messages []*models.ChatMessage) *models.ChatMessage {
	for _, messageID := range notification.MessageIDs {
		for _, message := range messages {
			if notification.OwnerID != "" && message.AuthorID != notification.OwnerID {
				continue
			}

			if message.RepliesTo(messageID) {
				return message
			}
		}
	}

	return nil
}
