package middleware

import (
	"net/http"
	"time"

	"github.com/nebulap8/teams-automation/internal/common/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type MetricsMiddleware struct {
	serviceName string
}

func NewMetricsMiddleware(serviceName string) *MetricsMiddleware {
	return &MetricsMiddleware{serviceName: serviceName}
}

func (m *MetricsMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		// Шаблон маршрута вместо сырого пути, чтобы идентификаторы
		// встреч и файлов не раздували кардинальность метрик.
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = r.URL.Path
		}

		metrics.RecordHTTPRequest(
			m.serviceName,
			r.Method,
			endpoint,
			recorder.status,
			time.Since(start),
		)
	})
}
