package httputil

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/errors"
)

// CreateResilientHTTPClient собирает resty-клиент для вызовов Graph API:
// повторы по настраиваемому списку статусов с учётом заголовка Retry-After
// и circuit breaker поверх транспорта.
func CreateResilientHTTPClient(cfg *config.Config, logger *slog.Logger, serviceName string) *resty.Client {
	client := resty.New()

	client.SetTimeout(cfg.ExternalRequestTimeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetRetryWaitTime(cfg.RetryBackoff)
	client.SetRetryMaxWaitTime(cfg.RetryBackoff * 5)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}

		for _, status := range cfg.RetryableStatusCodes {
			if r.StatusCode() == status {
				return true
			}
		}

		return false
	})

	// Graph при троттлинге присылает Retry-After в секундах; ожидание
	// меньше указанного гарантированно приведёт к повторному 429.
	client.SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
		if r == nil {
			return 0, nil
		}

		seconds, err := strconv.Atoi(r.Header().Get("Retry-After"))
		if err != nil || seconds <= 0 {
			return 0, nil
		}

		return time.Duration(seconds) * time.Second, nil
	})

	client.SetTransport(&breakerTransport{
		breaker: gobreaker.NewCircuitBreaker(breakerSettings(cfg, serviceName)),
		name:    serviceName,
		logger:  logger,
		next:    http.DefaultTransport,
	})

	if logger != nil {
		client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.Request.Attempt > 1 {
				logger.Info("Повторная попытка HTTP-запроса",
					"service", serviceName,
					"url", resp.Request.URL,
					"attempt", resp.Request.Attempt,
					"status", resp.StatusCode(),
				)
			}

			return nil
		})
	}

	return client
}

func breakerSettings(cfg *config.Config, serviceName string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        serviceName + "_circuit_breaker",
		MaxRequests: uint32(cfg.CBPermittedCallsInHalfOpen), //nolint:gosec // G115: Значение из конфига
		Interval:    time.Duration(cfg.CBSlidingWindowSize) * time.Second,
		Timeout:     cfg.CBWaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(cfg.CBMinimumRequiredCalls) && //nolint:gosec // G115: Значение из конфига
				failureRatio >= float64(cfg.CBFailureRateThreshold)/100.0
		},
	}
}

// breakerTransport считает ответы 5xx отказами, чтобы breaker размыкался
// и по ним, а не только по сетевым ошибкам.
type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker
	name    string
	logger  *slog.Logger
	next    http.RoundTripper
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, &errors.HTTPError{StatusCode: resp.StatusCode}
		}

		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState && t.logger != nil {
			t.logger.Warn("Circuit breaker разомкнут, запрос не отправлен",
				"service", t.name,
				"url", req.URL.String(),
			)
		}

		return nil, err
	}

	return result.(*http.Response), nil
}
