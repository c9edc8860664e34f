// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// AdminUserID is the fixed id of the distinguished admin user.
	AdminUserID string

	// GitLabURL is the base URL of the GitLab instance.
	GitLabURL string

	// GitLabOAuthAppID is the GitLab OAuth application client id.
	GitLabOAuthAppID string

	// GitLabOAuthAppSecret is the GitLab OAuth application client secret.
	GitLabOAuthAppSecret string

	// GitLabOAuthRedirectURL is the redirect URL registered with GitLab.
	GitLabOAuthRedirectURL string

	// ControllerURL is the base URL of the workflow controller.
	ControllerURL string

	// PublicURL is this server's externally reachable base URL, used as
	// the target when registering GitLab webhooks.
	PublicURL string

	// Engines is the comma-separated allow-list of workflow engines.
	Engines string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.AdminUserID, "admin-id", "00000000-0000-0000-0000-000000000000", "id of the admin user")
	flag.StringVar(&options.GitLabURL, "gitlab-url", "https://gitlab.com", "GitLab base URL")
	flag.StringVar(&options.GitLabOAuthAppID, "gitlab-app-id", "", "GitLab OAuth application id")
	flag.StringVar(&options.GitLabOAuthAppSecret, "gitlab-app-secret", "", "GitLab OAuth application secret")
	flag.StringVar(&options.GitLabOAuthRedirectURL, "gitlab-redirect-url", "", "GitLab OAuth redirect URL")
	flag.StringVar(&options.ControllerURL, "controller-url", "http://localhost:5000", "workflow controller base URL")
	flag.StringVar(&options.PublicURL, "public-url", "http://localhost:8080", "externally reachable base URL of this server")
	flag.StringVar(&options.Engines, "engines", "yadage", "comma-separated workflow engine allow-list")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if adminID := os.Getenv("ADMIN_USER_ID"); adminID != "" {
		options.AdminUserID = adminID
	}
	if gitlabURL := os.Getenv("GITLAB_URL"); gitlabURL != "" {
		options.GitLabURL = gitlabURL
	}
	if appID := os.Getenv("GITLAB_OAUTH_APP_ID"); appID != "" {
		options.GitLabOAuthAppID = appID
	}
	if appSecret := os.Getenv("GITLAB_OAUTH_APP_SECRET"); appSecret != "" {
		options.GitLabOAuthAppSecret = appSecret
	}
	if redirect := os.Getenv("GITLAB_OAUTH_REDIRECT_URL"); redirect != "" {
		options.GitLabOAuthRedirectURL = redirect
	}
	if controllerURL := os.Getenv("CONTROLLER_URL"); controllerURL != "" {
		options.ControllerURL = controllerURL
	}
	if publicURL := os.Getenv("PUBLIC_URL"); publicURL != "" {
		options.PublicURL = publicURL
	}
	if engines := os.Getenv("WORKFLOW_ENGINES"); engines != "" {
		options.Engines = engines
	}

	return options
}

// EngineList splits the configured engine allow-list into a slice,
// dropping empty entries.
func (o *Options) EngineList() []string {
	parts := strings.Split(o.Engines, ",")
	engines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			engines = append(engines, p)
		}
	}
	return engines
}
