package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reanahub/reana-relay/internal/metrics"
	"github.com/reanahub/reana-relay/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the relay API.
//
// Routes:
//
//	POST /api/analyses           → analysisHandler.Create  (token auth)
//	POST /api/analyses/webhook   → analysisHandler.Webhook (token auth)
//	GET  /api/analyses           → analysisHandler.List    (token auth)
//	GET  /api/users              → userHandler.List        (admin token)
//	POST /api/users              → userHandler.Create      (admin token)
//	GET  /api/users/export       → userHandler.Export      (admin token)
//	POST /api/users/import       → userHandler.Import      (admin token)
//	GET  /api/gitlab             → gitlabHandler.Connect   (token auth)
//	GET  /api/gitlab/projects    → gitlabHandler.Projects  (token auth)
//	POST /api/gitlab/webhook     → gitlabHandler.CreateHook (token auth)
//	GET  /metrics                → Prometheus scrape endpoint
//
// Admin routes carry their credential in the admin_access_token query
// parameter and are validated inside the service, so they bypass the
// token auth middleware.
func NewRouter(
	analysisHandler *AnalysisHandler,
	userHandler *UserHandler,
	gitlabHandler *GitLabHandler,
	resolver middleware.TokenResolver,
	m metrics.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithMetrics(m))

	r.Route("/api", func(r chi.Router) {
		// Admin endpoints: validated by admin token inside the service.
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/export", userHandler.Export)
			r.Post("/import", userHandler.Import)
		})

		// Caller endpoints: require a valid user access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(resolver))

			r.Route("/analyses", func(r chi.Router) {
				r.Post("/", analysisHandler.Create)
				r.Get("/", analysisHandler.List)
				r.Post("/webhook", analysisHandler.Webhook)
			})

			r.Route("/gitlab", func(r chi.Router) {
				r.Get("/", gitlabHandler.Connect)
				r.Get("/projects", gitlabHandler.Projects)
				r.With(chiMiddleware.AllowContentType("application/json")).
					Post("/webhook", gitlabHandler.CreateHook)
			})
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
