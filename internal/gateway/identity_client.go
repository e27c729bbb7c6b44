package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type IdentityClient struct {
	graph *GraphClient
}

func NewIdentityClient(cfg *config.Config, logger *slog.Logger) *IdentityClient {
	return &IdentityClient{graph: NewGraphClient(cfg, logger, "graph_identity")}
}

func (c *IdentityClient) ResolveByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var user struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Mail        string `json:"mail"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetResult(&user).
		Get(c.graph.url("/users/" + email))
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске пользователя %s: %w", email, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, &errors.ErrIdentityNotFound{Email: email}
	}

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	return &models.Identity{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Mail,
	}, nil
}
