package clients

import (
	"context"
	"time"

	"github.com/nebulap8/teams-automation/internal/domain/models"
)

// Каждый компонент зависит только от той возможности Graph, которой реально
// пользуется: чат, справочник пользователей, календарь или таблица.

type ChatClient interface {
	FetchMessages(ctx context.Context, chatID string) ([]*models.ChatMessage, error)

	SendMessage(ctx context.Context, chatID string, payload *models.MessagePayload) (string, error)

	GetChatIDByName(ctx context.Context, chatName string) (string, error)

	GetOneOnOneChatID(ctx context.Context, userID string) (string, error)
}

type IdentityClient interface {
	ResolveByEmail(ctx context.Context, email string) (*models.Identity, error)
}

type CalendarClient interface {
	FindMeetingTimes(ctx context.Context, attendees []string, windowStart, windowEnd time.Time, duration int) ([]models.TimeSlot, error)

	CreateEvent(ctx context.Context, subject string, slot models.TimeSlot, attendees []string, body string) (string, error)
}

type SheetClient interface {
	ReadRows(ctx context.Context, location models.FileLocation, sheetName string) ([]*models.SheetRow, error)

	WriteCell(ctx context.Context, location models.FileLocation, sheetName, cellAddress, value string) error
}
