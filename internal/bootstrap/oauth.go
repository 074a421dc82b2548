package bootstrap

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/client"
	"github.com/go-authgate/credgate/internal/config"
)

// initializeOAuthProviders initializes configured OAuth providers
func initializeOAuthProviders(cfg *config.Config) auth.Registry {
	var providers []auth.OAuthProvider

	// Google OAuth
	switch {
	case !cfg.GoogleOAuthEnabled:
		// Skip Google OAuth
	case cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "":
		log.Printf("Warning: Google OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers = append(providers, auth.NewGoogleProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleOAuthRedirectURL,
			Scopes:       cfg.GoogleOAuthScopes,
		}))
		log.Printf("Google OAuth configured: redirect=%s", cfg.GoogleOAuthRedirectURL)
	}

	// GitHub OAuth
	switch {
	case !cfg.GitHubOAuthEnabled:
		// Skip GitHub OAuth
	case cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "":
		log.Printf("Warning: GitHub OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers = append(providers, auth.NewGitHubProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubOAuthRedirectURL,
			Scopes:       cfg.GitHubOAuthScopes,
		}))
		log.Printf("GitHub OAuth configured: redirect=%s", cfg.GitHubOAuthRedirectURL)
	}

	return auth.NewRegistry(providers...)
}

// createOAuthHTTPClient creates the HTTP client for OAuth requests
func createOAuthHTTPClient(cfg *config.Config) (*http.Client, error) {
	if cfg.OAuthInsecureSkipVerify {
		log.Printf("WARNING: OAuth TLS verification is disabled (OAUTH_INSECURE_SKIP_VERIFY=true)")
	}

	c, err := client.NewOAuthClient(cfg.OAuthTimeout, cfg.OAuthInsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth HTTP client: %w", err)
	}
	return c, nil
}

// logOAuthProvidersStatus logs enabled OAuth providers
func logOAuthProvidersStatus(providers auth.Registry) {
	if len(providers) == 0 {
		return
	}
	names := make([]string, 0, len(providers))
	for _, p := range providers.Sorted() {
		names = append(names, p.Name())
	}
	log.Printf("OAuth providers enabled: %v", names)
}
