package models

import (
	"time"
)

type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

type ChatMessage struct {
	ID              string
	AuthorID        string
	AuthorName      string
	Body            string
	CreatedAt       time.Time
	ReplyReferences []string
}

// RepliesTo проверяет, ссылается ли сообщение на одно из ранее отправленных.
func (m *ChatMessage) RepliesTo(messageID string) bool {
	for _, ref := range m.ReplyReferences {
		if ref == messageID {
			return true
		}
	}

	return false
}

type MessagePayload struct {
	ContentType string
	Content     string
	Mentions    []Mention
	Attachments []MessageAttachment
	ReplyToID   string
}

type MessageAttachment struct {
	ID          string
	ContentType string
	Content     string
}

type Mention struct {
	ID          int
	UserID      string
	DisplayName string
}

type SheetRow struct {
	Index int
	Cells []string
}

func (r *SheetRow) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}

	return r.Cells[idx]
}
