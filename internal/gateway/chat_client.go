package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

const messageReferenceContentType = "messageReference"

type graphMessage struct {
	ID   string `json:"id"`
	From struct {
		User struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"user"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	CreatedDateTime time.Time `json:"createdDateTime"`
	Attachments     []struct {
		ID          string `json:"id"`
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"attachments"`
}

type graphChat struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	ChatType string `json:"chatType"`
	Members  []struct {
		UserID string `json:"userId"`
	} `json:"members"`
}

type ChatClient struct {
	graph *GraphClient
}

func NewChatClient(cfg *config.Config, logger *slog.Logger) *ChatClient {
	return &ChatClient{graph: NewGraphClient(cfg, logger, "graph_chat")}
}

func (c *ChatClient) FetchMessages(ctx context.Context, chatID string) ([]*models.ChatMessage, error) {
	raw, err := collectPages[graphMessage](c.graph, func() *resty.Request {
		return c.graph.request().SetContext(ctx)
	}, c.graph.url(fmt.Sprintf("/me/chats/%s/messages", chatID)))
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений чата %s: %w", chatID, err)
	}

	messages := make([]*models.ChatMessage, 0, len(raw))

	for _, m := range raw {
		msg := &models.ChatMessage{
			ID:         m.ID,
			AuthorID:   m.From.User.ID,
			AuthorName: m.From.User.DisplayName,
			Body:       m.Body.Content,
			CreatedAt:  m.CreatedDateTime,
		}

		for _, att := range m.Attachments {
			if att.ContentType == messageReferenceContentType {
				msg.ReplyReferences = append(msg.ReplyReferences, att.ID)
			}
		}

		messages = append(messages, msg)
	}

	return messages, nil
}

func (c *ChatClient) SendMessage(ctx context.Context, chatID string, payload *models.MessagePayload) (string, error) {
	body := buildGraphMessageBody(payload)

	var created struct {
		ID string `json:"id"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		Post(c.graph.url(fmt.Sprintf("/chats/%s/messages", chatID)))
	if err != nil {
		return "", fmt.Errorf("ошибка при отправке сообщения в чат %s: %w", chatID, err)
	}

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	return created.ID, nil
}

func buildGraphMessageBody(payload *models.MessagePayload) map[string]any {
	contentType := payload.ContentType
	if contentType == "" {
		contentType = "html"
	}

	body := map[string]any{
		"body": map[string]any{
			"contentType": contentType,
			"content":     payload.Content,
		},
	}

	if len(payload.Mentions) > 0 {
		mentions := make([]map[string]any, 0, len(payload.Mentions))

		for _, m := range payload.Mentions {
			mentions = append(mentions, map[string]any{
				"id":          m.ID,
				"mentionText": m.DisplayName,
				"mentioned": map[string]any{
					"user": map[string]any{
						"id":          m.UserID,
						"displayName": m.DisplayName,
					},
				},
			})
		}

		body["mentions"] = mentions
	}

	if len(payload.Attachments) > 0 {
		attachments := make([]map[string]any, 0, len(payload.Attachments))

		for _, a := range payload.Attachments {
			attachments = append(attachments, map[string]any{
				"id":          a.ID,
				"contentType": a.ContentType,
				"content":     a.Content,
			})
		}

		body["attachments"] = attachments
	}

	return body
}

func (c *ChatClient) GetChatIDByName(ctx context.Context, chatName string) (string, error) {
	chats, err := collectPages[graphChat](c.graph, func() *resty.Request {
		return c.graph.request().SetContext(ctx).SetQueryParam("$select", "topic,id")
	}, c.graph.url("/me/chats"))
	if err != nil {
		return "", fmt.Errorf("ошибка при получении списка чатов: %w", err)
	}

	for _, chat := range chats {
		if chat.Topic == chatName {
			return chat.ID, nil
		}
	}

	return "", &errors.ErrChatNotFound{ChatName: chatName}
}

func (c *ChatClient) GetOneOnOneChatID(ctx context.Context, userID string) (string, error) {
	chats, err := collectPages[graphChat](c.graph, func() *resty.Request {
		return c.graph.request().SetContext(ctx).SetQueryParam("$expand", "members")
	}, c.graph.url("/me/chats"))
	if err != nil {
		return "", fmt.Errorf("ошибка при получении списка чатов: %w", err)
	}

	for _, chat := range chats {
		if chat.ChatType != "oneOnOne" {
			continue
		}

		for _, member := range chat.Members {
			if member.UserID == userID {
				return chat.ID, nil
			}
		}
	}

	return "", &errors.ErrChatNotFound{ChatName: userID}
}
