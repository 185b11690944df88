package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTP(method, path string, status int, seconds float64)
	InFlight(delta float64)
}

// MetricsMiddleware records HTTP metrics.
type MetricsMiddleware struct {
	observer HTTPObserver
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(observer HTTPObserver) *MetricsMiddleware {
	return &MetricsMiddleware{observer: observer}
}

// Wrap wraps an http.Handler with request metrics.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.observer.InFlight(1)
		defer m.observer.InFlight(-1)

		// Wrap response writer to capture status code
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.observer.ObserveHTTP(r.Method, routePattern(r), wrapped.statusCode, time.Since(start).Seconds())
	})
}

// routePattern returns the matched chi route so unknown paths share one
// label value.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return "unmatched"
}
