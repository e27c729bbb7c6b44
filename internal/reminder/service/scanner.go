package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nebulap8/teams-automation/internal/common/metrics"
	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/clients"
	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/gateway"
	"github.com/nebulap8/teams-automation/internal/reminder/cache"
	"github.com/nebulap8/teams-automation/internal/reminder/repository"
)

// Форматы дат, встречающиеся в отслеживаемых таблицах.
var sheetDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01-02-2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type Scanner struct {
	notificationRepo repository.NotificationRepository
	trackedFileRepo  repository.TrackedFileRepository
	sheetClient      clients.SheetClient
	identityClient   clients.IdentityClient
	chatClient       clients.ChatClient
	identityCache    cache.IdentityCache
	config           *config.Config
	logger           *slog.Logger
}

func NewScanner(
	notificationRepo repository.NotificationRepository,
	trackedFileRepo repository.TrackedFileRepository,
	sheetClient clients.SheetClient,
	identityClient clients.IdentityClient,
	chatClient clients.ChatClient,
	identityCache cache.IdentityCache,
	cfg *config.Config,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		notificationRepo: notificationRepo,
		trackedFileRepo:  trackedFileRepo,
		sheetClient:      sheetClient,
		identityClient:   identityClient,
		chatClient:       chatClient,
		identityCache:    identityCache,
		config:           cfg,
		logger:           logger,
	}
}

// Scan разбирает лист, создаёт или обновляет уведомления по проблемным строкам
// и регистрирует файл под периодическое наблюдение. Возвращает запись файла и
// количество затронутых уведомлений.
func (s *Scanner) Scan(ctx context.Context, hostID string, loc models.FileLocation, sheetName string, notifyInterval time.Duration) (*models.TrackedFile, int, error) {
	rows, err := s.sheetClient.ReadRows(ctx, loc, sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка при чтении листа %s: %w", sheetName, err)
	}

	// Первая строка — шапка, вторая несёт имя группового чата.
	if len(rows) < 2 {
		s.logger.Warn("Лист слишком короткий, сканировать нечего",
			"sheet", sheetName,
			"rows", len(rows))

		return nil, 0, nil
	}

	chatName := rows[1].Cell(s.config.ChatNameColumn)
	if chatName == "" {
		return nil, 0, &customerrors.ErrInvalidArgument{Message: "на листе не указано имя группового чата"}
	}

	chatID, err := s.resolveChatID(ctx, chatName)
	if err != nil {
		return nil, 0, err
	}

	upserted := 0

	for _, row := range rows[2:] {
		upserted += s.processRow(ctx, hostID, loc, sheetName, chatName, chatID, row)
	}

	file, err := s.trackedFileRepo.Upsert(ctx, &models.TrackedFile{
		ID:             uuid.NewString(),
		HostID:         hostID,
		SiteName:       loc.SiteName,
		DriveName:      loc.DriveName,
		FilePath:       loc.FilePath,
		SheetName:      sheetName,
		NotifyInterval: notifyInterval,
	})
	if err != nil {
		return nil, upserted, err
	}

	s.logger.Info("Сканирование листа завершено",
		"sheet", sheetName,
		"upserted", upserted)

	return file, upserted, nil
}

// processRow возвращает количество созданных или обновлённых уведомлений по строке.
func (s *Scanner) processRow(ctx context.Context, hostID string, loc models.FileLocation, sheetName, chatName, chatID string, row *models.SheetRow) int {
	task := strings.TrimSpace(row.Cell(s.config.TaskColumn))
	if task == "" {
		return 0
	}

	status := strings.ToLower(strings.TrimSpace(row.Cell(s.config.StatusColumn)))
	if status == "done" || status == "n/a" {
		return 0
	}

	owner := strings.TrimSpace(row.Cell(s.config.OwnerColumn))

	// Без владельца (или с некорректным адресом) остальные проверки не имеют смысла.
	if owner == "" {
		return s.upsert(ctx, hostID, loc, sheetName, chatName, chatID, row, task, "",
			models.ReasonOwnerMissing, s.config.OwnerColumn)
	}

	if !strings.Contains(owner, "@") {
		return s.upsert(ctx, hostID, loc, sheetName, chatName, chatID, row, task, "",
			models.ReasonOwnerInvalid, s.config.OwnerColumn)
	}

	count := 0

	startDate := strings.TrimSpace(row.Cell(s.config.StartDateColumn))
	if startDate == "" {
		count += s.upsert(ctx, hostID, loc, sheetName, chatName, chatID, row, task, owner,
			models.ReasonStartDateMissing, s.config.StartDateColumn)
	} else if withinOneDay(startDate) {
		count += s.upsert(ctx, hostID, loc, sheetName, chatName, chatID, row, task, owner,
			models.ReasonStartDateImminent, s.config.StartDateColumn)
	}

	dueDate := strings.TrimSpace(row.Cell(s.config.DueDateColumn))
	if dueDate == "" {
		count += s.upsert(ctx, hostID, loc, sheetName, chatName, chatID, row, task, owner,
			models.ReasonDueDateMissing, s.config.DueDateColumn)
	} else if withinOneDay(dueDate) {
		count += s.upsert(ctx, hostID, loc, sheetName, chatName, chatID, row, task, owner,
			models.ReasonDueDateImminent, s.config.DueDateColumn)
	}

	return count
}

func (s *Scanner) upsert(ctx context.Context, hostID string, loc models.FileLocation, sheetName, chatName, chatID string, row *models.SheetRow, task, owner string, reason models.NotifyReason, column int) int {
	cellAddress := gateway.ColumnLetter(column) + strconv.Itoa(row.Index)

	notification := &models.Notification{
		HostID:      hostID,
		SiteName:    loc.SiteName,
		DriveName:   loc.DriveName,
		FilePath:    loc.FilePath,
		SheetName:   sheetName,
		Row:         row.Index,
		Task:        task,
		ChatID:      chatID,
		ChatName:    chatName,
		CellAddress: cellAddress,
		Reason:      reason,
		Status:      models.NotificationPending,
	}

	if owner != "" {
		if identity := s.resolveIdentity(ctx, owner); identity != nil {
			notification.OwnerID = identity.ID
			notification.OwnerEmail = identity.Email
			notification.OwnerName = identity.DisplayName
		} else {
			notification.OwnerEmail = owner
		}
	}

	existing, err := s.notificationRepo.FindByNaturalKey(ctx, notification.Key())

	switch {
	case err == nil && existing.Status == models.NotificationCompleted:
		// Завершённые уведомления не возвращаются в работу повторным сканированием.
		return 0
	case err == nil:
		existing.Task = notification.Task
		existing.ChatID = notification.ChatID
		existing.ChatName = notification.ChatName
		existing.OwnerID = notification.OwnerID
		existing.OwnerEmail = notification.OwnerEmail
		existing.OwnerName = notification.OwnerName
		existing.CellAddress = notification.CellAddress
		existing.Status = models.NotificationPending

		if updateErr := s.notificationRepo.Update(ctx, existing); updateErr != nil {
			s.logger.Error("Ошибка при обновлении уведомления",
				"task", task,
				"reason", reason,
				"error", updateErr)

			return 0
		}

		s.logger.Info("Уведомление обновлено",
			"task", task,
			"reason", reason)
	case errors.Is(err, &customerrors.ErrNotificationNotFound{}):
		notification.ID = uuid.NewString()

		if saveErr := s.notificationRepo.Save(ctx, notification); saveErr != nil {
			s.logger.Error("Ошибка при создании уведомления",
				"task", task,
				"reason", reason,
				"error", saveErr)

			return 0
		}

		s.logger.Info("Уведомление создано",
			"task", task,
			"reason", reason)
	default:
		s.logger.Error("Ошибка при поиске уведомления по ключу",
			"task", task,
			"reason", reason,
			"error", err)

		return 0
	}

	metrics.NotificationsUpserted.WithLabelValues(string(reason)).Inc()

	return 1
}

// resolveIdentity терпимо относится к сбоям справочника: без владельца
// уведомление всё равно уходит в групповой чат, просто без упоминания.
func (s *Scanner) resolveIdentity(ctx context.Context, email string) *models.Identity {
	if cached, err := s.identityCache.GetIdentity(ctx, email); err == nil && cached != nil {
		return cached
	}

	identity, err := s.identityClient.ResolveByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("Не удалось определить владельца задачи",
			"email", email,
			"error", err)

		return nil
	}

	if err := s.identityCache.SetIdentity(ctx, email, identity); err != nil {
		s.logger.Warn("Не удалось сохранить владельца в кэш",
			"email", email,
			"error", err)
	}

	return identity
}

func (s *Scanner) resolveChatID(ctx context.Context, chatName string) (string, error) {
	if cached, err := s.identityCache.GetChatID(ctx, chatName); err == nil && cached != "" {
		return cached, nil
	}

	chatID, err := s.chatClient.GetChatIDByName(ctx, chatName)
	if err != nil {
		return "", fmt.Errorf("ошибка при поиске чата %s: %w", chatName, err)
	}

	if err := s.identityCache.SetChatID(ctx, chatName, chatID); err != nil {
		s.logger.Warn("Не удалось сохранить идентификатор чата в кэш",
			"chatName", chatName,
			"error", err)
	}

	return chatID, nil
}

// withinOneDay — дата отстоит от сегодняшнего дня ровно на один календарный день
// в любую сторону. Нечитаемые даты не считаются поводом для уведомления.
func withinOneDay(value string) bool {
	parsed, ok := parseSheetDate(value)
	if !ok {
		return false
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)

	days := int(date.Sub(today).Hours() / 24)
	if days < 0 {
		days = -days
	}

	return days == 1
}

func parseSheetDate(value string) (time.Time, bool) {
	for _, layout := range sheetDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}
