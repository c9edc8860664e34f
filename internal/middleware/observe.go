package middleware

import (
	"net/http"
	"strconv"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reanahub/reana-relay/internal/metrics"
)

// WithMetrics returns a middleware that records a request counter and
// duration observation for every handled request.
func WithMetrics(m metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			m.ObserveRequest(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
		})
	}
}
