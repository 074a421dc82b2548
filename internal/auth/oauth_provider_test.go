package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(apiURL string) OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/callback/test",
		Scopes:       []string{"email"},
		APIURL:       apiURL,
	}
}

func TestGoogleProvider_FetchIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{
			"sub":            "1234567890",
			"email":          "a@x.com",
			"email_verified": true,
			"name":           "Alice",
		})
	}))
	defer srv.Close()

	p := NewGoogleProvider(testConfig(srv.URL))
	id, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "access-token"})
	require.NoError(t, err)

	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "1234567890", id.Subject)
	assert.Equal(t, "a@x.com", id.Email)
	assert.Equal(t, "Alice", id.Name)
}

func TestGoogleProvider_UnverifiedEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"sub":            "1",
			"email":          "a@x.com",
			"email_verified": false,
		})
	}))
	defer srv.Close()

	p := NewGoogleProvider(testConfig(srv.URL))
	_, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "t"})
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestGoogleProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewGoogleProvider(testConfig(srv.URL))
	_, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "t"})
	assert.ErrorIs(t, err, ErrProviderAPI)
}

func TestGitHubProvider_FetchIdentity_PublicEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			writeJSON(w, map[string]any{
				"id":    42,
				"login": "octocat",
				"name":  "",
				"email": "octo@x.com",
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewGitHubProvider(testConfig(srv.URL))
	id, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "t"})
	require.NoError(t, err)

	assert.Equal(t, "github", id.Provider)
	assert.Equal(t, "42", id.Subject)
	assert.Equal(t, "octo@x.com", id.Email)
	assert.Equal(t, "octocat", id.Name, "login is used when the profile name is empty")
}

func TestGitHubProvider_FetchIdentity_PrivateEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			writeJSON(w, map[string]any{"id": 7, "login": "bob", "name": "Bob"})
		case "/user/emails":
			writeJSON(w, []map[string]any{
				{"email": "old@x.com", "primary": false, "verified": true},
				{"email": "bob@x.com", "primary": true, "verified": true},
			})
		}
	}))
	defer srv.Close()

	p := NewGitHubProvider(testConfig(srv.URL))
	id, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", id.Email)
	assert.Equal(t, "Bob", id.Name)
}

func TestGitHubProvider_NoVerifiedEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			writeJSON(w, map[string]any{"id": 7, "login": "bob"})
		case "/user/emails":
			writeJSON(w, []map[string]any{
				{"email": "bob@x.com", "primary": true, "verified": false},
			})
		}
	}))
	defer srv.Close()

	p := NewGitHubProvider(testConfig(srv.URL))
	_, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "t"})
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestPickGitHubEmail(t *testing.T) {
	tests := []struct {
		name   string
		emails []githubEmail
		want   string
	}{
		{"empty", nil, ""},
		{"primary verified wins", []githubEmail{
			{Email: "a@x.com", Verified: true},
			{Email: "b@x.com", Primary: true, Verified: true},
		}, "b@x.com"},
		{"first verified fallback", []githubEmail{
			{Email: "a@x.com", Primary: true},
			{Email: "b@x.com", Verified: true},
		}, "b@x.com"},
		{"none verified", []githubEmail{{Email: "a@x.com", Primary: true}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickGitHubEmail(tt.emails))
		})
	}
}

func TestProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(testConfig(""))

	raw := p.AuthCodeURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:8080/auth/callback/test", q.Get("redirect_uri"))
}

func TestProvider_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		writeJSON(w, map[string]any{
			"access_token": "access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Endpoint = &oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p := NewGitHubProvider(cfg)

	tok, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "access-token", tok.AccessToken)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		NewGitHubProvider(testConfig("")),
		NewGoogleProvider(testConfig("")),
	)

	p, ok := r.Get("google")
	require.True(t, ok)
	assert.Equal(t, "Google", p.DisplayName())

	_, ok = r.Get("gitea")
	assert.False(t, ok)

	sorted := r.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "github", sorted[0].Name())
	assert.Equal(t, "google", sorted[1].Name())
}
