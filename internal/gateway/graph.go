package gateway

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/nebulap8/teams-automation/internal/common/httputil"
	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/errors"
)

// GraphClient — общая основа клиентов Microsoft Graph: resty с ретраями и
// circuit breaker, bearer-токен и обход @odata.nextLink пагинации.
type GraphClient struct {
	client  *resty.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

func NewGraphClient(cfg *config.Config, logger *slog.Logger, serviceName string) *GraphClient {
	client := httputil.CreateResilientHTTPClient(cfg, logger, serviceName)

	return &GraphClient{
		client:  client,
		baseURL: cfg.GraphBaseURL,
		token:   cfg.GraphAccessToken,
		logger:  logger,
	}
}

func (c *GraphClient) request() *resty.Request {
	return c.client.R().
		SetHeader("Authorization", "Bearer "+c.token).
		SetHeader("Content-Type", "application/json")
}

func (c *GraphClient) url(endpoint string) string {
	return c.baseURL + endpoint
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return &errors.ErrRateLimited{RetryAfter: resp.Header().Get("Retry-After")}
	}

	return &errors.HTTPError{StatusCode: resp.StatusCode()}
}

type paginated[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// collectPages обходит все страницы ответа Graph и возвращает плоский список.
func collectPages[T any](c *GraphClient, req func() *resty.Request, firstURL string) ([]T, error) {
	var result []T

	next := firstURL

	for next != "" {
		var page paginated[T]

		resp, err := req().SetResult(&page).Get(next)
		if err != nil {
			return nil, fmt.Errorf("ошибка запроса к Graph API: %w", err)
		}

		if err := checkResponse(resp); err != nil {
			return nil, err
		}

		result = append(result, page.Value...)
		next = page.NextLink
	}

	return result, nil
}
