package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type IdentityCache interface {
	GetIdentity(ctx context.Context, email string) (*models.Identity, error)
	SetIdentity(ctx context.Context, email string, identity *models.Identity) error
	GetChatID(ctx context.Context, chatName string) (string, error)
	SetChatID(ctx context.Context, chatName, chatID string) error
}

// RedisIdentityCache кэширует разрешённые адреса и идентификаторы чатов,
// чтобы не ходить в Graph за одним и тем же на каждом проходе сканера.
type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisIdentityCache(redisURL, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisIdentityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis успешно установлено")

	return &RedisIdentityCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *RedisIdentityCache) GetIdentity(ctx context.Context, email string) (*models.Identity, error) {
	key := "identity:" + email

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}

		c.logger.Error("Ошибка при получении данных из Redis",
			"error", err,
			"email", email,
		)

		return nil, fmt.Errorf("ошибка при получении данных из Redis: %w", err)
	}

	identity := &models.Identity{}
	if err := json.Unmarshal(data, identity); err != nil {
		return nil, fmt.Errorf("ошибка при десериализации данных из Redis: %w", err)
	}

	return identity, nil
}

func (c *RedisIdentityCache) SetIdentity(ctx context.Context, email string, identity *models.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации данных для Redis: %w", err)
	}

	if err := c.client.Set(ctx, "identity:"+email, data, c.ttl).Err(); err != nil {
		c.logger.Error("Ошибка при сохранении данных в Redis",
			"error", err,
			"email", email,
		)

		return fmt.Errorf("ошибка при сохранении данных в Redis: %w", err)
	}

	return nil
}

func (c *RedisIdentityCache) GetChatID(ctx context.Context, chatName string) (string, error) {
	chatID, err := c.client.Get(ctx, "chat:"+chatName).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}

		c.logger.Error("Ошибка при получении данных из Redis",
			"error", err,
			"chatName", chatName,
		)

		return "", fmt.Errorf("ошибка при получении данных из Redis: %w", err)
	}

	return chatID, nil
}

func (c *RedisIdentityCache) SetChatID(ctx context.Context, chatName, chatID string) error {
	if err := c.client.Set(ctx, "chat:"+chatName, chatID, c.ttl).Err(); err != nil {
		c.logger.Error("Ошибка при сохранении данных в Redis",
			"error", err,
			"chatName", chatName,
		)

		return fmt.Errorf("ошибка при сохранении данных в Redis: %w", err)
	}

	return nil
}

func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}
