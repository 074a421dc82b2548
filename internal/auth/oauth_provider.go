package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-authgate/credgate/internal/core"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubAPIURL      = "https://api.github.com"
)

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Optional overrides, used to point a provider at a test server
	Endpoint *oauth2.Endpoint
	APIURL   string
}

// OAuthProvider is one external identity provider. The exchange yields a
// verified core.ExternalIdentity; callers never branch on the provider name.
type OAuthProvider interface {
	Name() string
	DisplayName() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, token *oauth2.Token) (core.ExternalIdentity, error)
}

// Registry maps provider names to enabled providers
type Registry map[string]OAuthProvider

// NewRegistry builds a registry from the given providers
func NewRegistry(providers ...OAuthProvider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

// Get returns the provider registered under name
func (r Registry) Get(name string) (OAuthProvider, bool) {
	p, ok := r[name]
	return p, ok
}

// Sorted returns the providers ordered by name, for stable page rendering
func (r Registry) Sorted() []OAuthProvider {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]OAuthProvider, 0, len(names))
	for _, name := range names {
		out = append(out, r[name])
	}
	return out
}

// baseProvider holds the oauth2 plumbing shared by all providers
type baseProvider struct {
	config *oauth2.Config
	apiURL string
}

func newBaseProvider(cfg OAuthProviderConfig, endpoint oauth2.Endpoint, apiURL string) baseProvider {
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	if cfg.APIURL != "" {
		apiURL = strings.TrimRight(cfg.APIURL, "/")
	}
	return baseProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
	}
}

// AuthCodeURL returns the OAuth authorization URL
func (p baseProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange exchanges an authorization code for an access token.
// The HTTP client is taken from ctx (oauth2.HTTPClient) when present.
func (p baseProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// getJSON performs an authenticated GET and decodes the JSON response into v
func (p baseProvider) getJSON(
	ctx context.Context,
	client *http.Client,
	url string,
	v any,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s - %s", ErrProviderAPI, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GoogleProvider signs users in with Google's OpenID Connect userinfo endpoint
type GoogleProvider struct {
	baseProvider
}

// NewGoogleProvider creates a new Google OAuth provider
func NewGoogleProvider(cfg OAuthProviderConfig) *GoogleProvider {
	return &GoogleProvider{
		baseProvider: newBaseProvider(cfg, google.Endpoint, googleUserInfoURL),
	}
}

func (p *GoogleProvider) Name() string        { return "google" }
func (p *GoogleProvider) DisplayName() string { return "Google" }

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// FetchIdentity retrieves the signed-in Google account
func (p *GoogleProvider) FetchIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (core.ExternalIdentity, error) {
	var info googleUserInfo
	if err := p.getJSON(ctx, p.config.Client(ctx, token), p.apiURL, &info); err != nil {
		return core.ExternalIdentity{}, fmt.Errorf("google userinfo: %w", err)
	}

	// Unverified addresses are treated as absent
	if info.Email == "" || !info.EmailVerified {
		return core.ExternalIdentity{}, ErrNoEmail
	}

	return core.ExternalIdentity{
		Provider: p.Name(),
		Subject:  info.Sub,
		Email:    info.Email,
		Name:     info.Name,
	}, nil
}

// GitHubProvider signs users in with the GitHub user and emails API
type GitHubProvider struct {
	baseProvider
}

// NewGitHubProvider creates a new GitHub OAuth provider
func NewGitHubProvider(cfg OAuthProviderConfig) *GitHubProvider {
	return &GitHubProvider{
		baseProvider: newBaseProvider(cfg, github.Endpoint, githubAPIURL),
	}
}

func (p *GitHubProvider) Name() string        { return "github" }
func (p *GitHubProvider) DisplayName() string { return "GitHub" }

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchIdentity retrieves the signed-in GitHub account. When the profile
// email is private the primary verified address is used instead.
func (p *GitHubProvider) FetchIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (core.ExternalIdentity, error) {
	client := p.config.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(ctx, client, p.apiURL+"/user", &user); err != nil {
		return core.ExternalIdentity{}, fmt.Errorf("github user: %w", err)
	}

	if user.Email == "" {
		var emails []githubEmail
		if err := p.getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
			return core.ExternalIdentity{}, fmt.Errorf("github emails: %w", err)
		}
		user.Email = pickGitHubEmail(emails)
	}

	if user.Email == "" {
		return core.ExternalIdentity{}, ErrNoEmail
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return core.ExternalIdentity{
		Provider: p.Name(),
		Subject:  strconv.FormatInt(user.ID, 10),
		Email:    user.Email,
		Name:     name,
	}, nil
}

// pickGitHubEmail prefers the primary verified address, then any verified one
func pickGitHubEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}
