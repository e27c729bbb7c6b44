package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware ограничивает частоту запросов на вызывающего.
// Вебхуки ответов приходят через ingress, поэтому вызывающий определяется
// по первому адресу X-Forwarded-For, а при его отсутствии по RemoteAddr.
type RateLimiterMiddleware struct {
	mu      sync.Mutex
	callers map[string]*callerBucket
	rate    rate.Limit
	burst   int
	logger  *slog.Logger
}

func NewRateLimiterMiddleware(
	ctx context.Context,
	requestsPerWindow int,
	window time.Duration,
	logger *slog.Logger,
) *RateLimiterMiddleware {
	m := &RateLimiterMiddleware{
		callers: make(map[string]*callerBucket),
		rate:    rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:   requestsPerWindow,
		logger:  logger,
	}

	go m.sweepIdleCallers(ctx)

	return m
}

func callerKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func (m *RateLimiterMiddleware) bucketFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.callers[key]
	if !ok {
		bucket = &callerBucket{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.callers[key] = bucket
	}

	bucket.lastSeen = time.Now()

	return bucket.limiter
}

func (m *RateLimiterMiddleware) sweepIdleCallers(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			for key, bucket := range m.callers {
				if time.Since(bucket.lastSeen) > time.Hour {
					delete(m.callers, key)
				}
			}
			m.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)

		if !m.bucketFor(key).Allow() {
			retryAfter := int(1 / float64(m.rate))
			if retryAfter < 1 {
				retryAfter = 1
			}

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")

			if m.logger != nil {
				m.logger.Warn("Превышен лимит запросов",
					"caller", key,
					"path", r.URL.Path,
				)
			}

			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)

			return
		}

		next.ServeHTTP(w, r)
	})
}
