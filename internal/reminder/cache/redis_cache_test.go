package cache_test

import (
	"context"
	"testing"
	"time"

	"log/slog"
	"os"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nebulap8/teams-automation/internal/domain/models"
	"github.com/nebulap8/teams-automation/internal/reminder/cache"
)

func startRedisContainer(t *testing.T) (container testcontainers.Container, port string) {
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	mappedPort, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return redisC, mappedPort.Port()
}

func TestRedisIdentityCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	redisC, redisPort := startRedisContainer(t)
	defer func() {
		if err := redisC.Terminate(context.Background()); err != nil {
			t.Logf("Ошибка при остановке Redis контейнера: %v", err)
		}
	}()

	redisURL := "localhost:" + redisPort
	ttl := 30 * time.Second

	identityCache, err := cache.NewRedisIdentityCache(redisURL, "", 0, ttl, logger)
	require.NoError(t, err)

	defer identityCache.Close()

	ctx := context.Background()

	t.Run("Identity roundtrip", func(t *testing.T) {
		identity := &models.Identity{
			ID:          "user-alice",
			DisplayName: "Alice",
			Email:       "alice@example.com",
		}

		missing, err := identityCache.GetIdentity(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)

		require.NoError(t, identityCache.SetIdentity(ctx, "alice@example.com", identity))

		cached, err := identityCache.GetIdentity(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, identity.ID, cached.ID)
		assert.Equal(t, identity.DisplayName, cached.DisplayName)
		assert.Equal(t, identity.Email, cached.Email)
	})

	t.Run("Chat ID roundtrip", func(t *testing.T) {
		missing, err := identityCache.GetChatID(ctx, "Project Alpha")
		require.NoError(t, err)
		assert.Empty(t, missing)

		require.NoError(t, identityCache.SetChatID(ctx, "Project Alpha", "chat-1"))

		cached, err := identityCache.GetChatID(ctx, "Project Alpha")
		require.NoError(t, err)
		assert.Equal(t, "chat-1", cached)
	})
}
