package httputil_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulap8/teams-automation/internal/common/httputil"
	"github.com/nebulap8/teams-automation/internal/config"
)

func resilienceConfig() *config.Config {
	return &config.Config{
		ExternalRequestTimeout:     5 * time.Second,
		RetryCount:                 3,
		RetryBackoff:               50 * time.Millisecond,
		RetryableStatusCodes:       []int{429, 500, 502, 503, 504},
		CBSlidingWindowSize:        100,
		CBMinimumRequiredCalls:     100,
		CBFailureRateThreshold:     100,
		CBPermittedCallsInHalfOpen: 10,
		CBWaitDurationInOpenState:  10 * time.Second,
	}
}

func newResilientClient(cfg *config.Config, name string) *resty.Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httputil.CreateResilientHTTPClient(cfg, logger, name)
}

func TestRetryUntilSuccess(t *testing.T) {
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newResilientClient(resilienceConfig(), "graph_chat")

	resp, err := client.R().Get(server.URL + "/chats/chat-1/messages")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(3), atomic.LoadInt32(&requestCount),
		"Должно быть 3 запроса: 2 неудачных и 1 успешный")
}

func TestNonRetryableStatusReturnedAsIs(t *testing.T) {
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newResilientClient(resilienceConfig(), "graph_sheet")

	resp, err := client.R().Get(server.URL + "/sites/unknown")

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount),
		"Не-повторяемый статус не должен вызывать retry")
}

func TestRetryAfterHeaderIsHonored(t *testing.T) {
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&requestCount, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := resilienceConfig()
	cfg.RetryBackoff = 300 * time.Millisecond

	client := newResilientClient(cfg, "graph_chat")

	start := time.Now()
	resp, err := client.R().Get(server.URL + "/chats/chat-1/messages")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond,
		"Повтор должен ждать не меньше значения Retry-After")
}

func TestCircuitBreakerFastFailure(t *testing.T) {
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := resilienceConfig()
	cfg.RetryCount = 1
	cfg.CBSlidingWindowSize = 1
	cfg.CBMinimumRequiredCalls = 1
	cfg.CBPermittedCallsInHalfOpen = 1
	cfg.CBWaitDurationInOpenState = 2 * time.Second

	client := newResilientClient(cfg, "graph_calendar")

	_, err := client.R().Get(server.URL + "/findMeetingTimes")
	require.Error(t, err)

	countAfterFirst := atomic.LoadInt32(&requestCount)

	start := time.Now()
	_, err = client.R().Get(server.URL + "/findMeetingTimes")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Less(t, elapsed, 200*time.Millisecond,
		"Разомкнутый breaker должен отвечать без обращения к серверу")
	assert.LessOrEqual(t, atomic.LoadInt32(&requestCount), countAfterFirst+1,
		"Breaker должен остановить запросы к недоступному серверу")
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	var failing int32 = 1

	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requestCount, 1)

		if atomic.LoadInt32(&failing) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := resilienceConfig()
	cfg.RetryCount = 1
	cfg.CBSlidingWindowSize = 1
	cfg.CBMinimumRequiredCalls = 1
	cfg.CBPermittedCallsInHalfOpen = 1
	cfg.CBWaitDurationInOpenState = 200 * time.Millisecond

	client := newResilientClient(cfg, "graph_identity")

	_, err := client.R().Get(server.URL + "/users/alice")
	require.Error(t, err)

	_, err = client.R().Get(server.URL + "/users/alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	atomic.StoreInt32(&failing, 0)
	time.Sleep(300 * time.Millisecond)

	resp, err := client.R().Get(server.URL + "/users/alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}
