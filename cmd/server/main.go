// Package main initializes and starts the relay server, wiring up
// configuration, logging, the database, repositories, services and the
// HTTP router.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/reanahub/reana-relay/internal/config"
	"github.com/reanahub/reana-relay/internal/db"
	"github.com/reanahub/reana-relay/internal/dispatch"
	"github.com/reanahub/reana-relay/internal/engine"
	"github.com/reanahub/reana-relay/internal/gitlab"
	"github.com/reanahub/reana-relay/internal/logger"
	"github.com/reanahub/reana-relay/internal/metrics"
	"github.com/reanahub/reana-relay/internal/repository"
	"github.com/reanahub/reana-relay/internal/server/handler/http"
	"github.com/reanahub/reana-relay/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize repositories for users and secrets.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	secretRepo := repository.NewPostgresSecretRepository(postgresDB)

	// Initialize collaborator clients.
	gitlabClient := gitlab.NewClient(options.GitLabURL)
	controller := dispatch.NewClient(options.ControllerURL, zapLogger)

	// Initialize business-logic services.
	identity := service.NewIdentityService(userRepo, options.AdminUserID)
	vault := service.NewVaultService(secretRepo)
	userAdmin := service.NewUserAdminService(identity, userRepo)
	engines := engine.Default(options.EngineList())
	resolver := service.NewSpecResolver(engines, vault, gitlabClient)
	submission := service.NewSubmissionService(resolver, engines, controller)
	gitlabIntegration := service.NewGitLabIntegrationService(gitlabClient, vault, service.GitLabIntegrationOptions{
		OAuthAppID:     options.GitLabOAuthAppID,
		OAuthAppSecret: options.GitLabOAuthAppSecret,
		RedirectURL:    options.GitLabOAuthRedirectURL,
		PublicURL:      options.PublicURL,
	})

	// Create HTTP handlers and metrics.
	prom := metrics.NewProm("reana_relay")
	analysisHandler, err := http.NewAnalysisHandler(submission, prom)
	if err != nil {
		zapLogger.Fatal("cannot init webhook parser", zap.Error(err))
	}
	userHandler := &http.UserHandler{Service: userAdmin}
	gitlabHandler := &http.GitLabHandler{Service: gitlabIntegration}

	// Build the router with middleware and routes.
	router := http.NewRouter(analysisHandler, userHandler, gitlabHandler, identity, prom, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
