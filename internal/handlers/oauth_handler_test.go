package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/core"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider is an OAuthProvider whose identity is fixed by the test
type fakeProvider struct {
	identity    core.ExternalIdentity
	exchangeErr error
	identityErr error
}

func (p *fakeProvider) Name() string        { return "fake" }
func (p *fakeProvider) DisplayName() string { return "Fake" }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

func (p *fakeProvider) FetchIdentity(context.Context, *oauth2.Token) (core.ExternalIdentity, error) {
	return p.identity, p.identityErr
}

// startLogin runs the login redirect and returns the state and session cookie
func startLogin(t *testing.T, ts *testServer, query string) (string, *http.Cookie) {
	t.Helper()

	w := ts.do(t, http.MethodGet, "/auth/login/fake"+query, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "provider.example.com", loc.Host)

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	c := findCookie(w, "oauth_session")
	require.NotNil(t, c)
	return state, c
}

func callbackTarget(state string) string {
	return "/auth/callback/fake?code=abc&state=" + url.QueryEscape(state)
}

func TestOAuthLogin_UnknownProvider(t *testing.T) {
	ts := newTestServer(t, PasswordResetOptions{})

	w := ts.do(t, http.MethodGet, "/auth/login/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unsupported OAuth provider")
}

func TestOAuthCallback_ProvisionsUser(t *testing.T) {
	provider := &fakeProvider{identity: core.ExternalIdentity{
		Provider: "fake",
		Subject:  "42",
		Email:    "carol@example.com",
		Name:     "Carol",
	}}
	ts := newTestServer(t, PasswordResetOptions{}, provider)

	state, oauthCookie := startLogin(t, ts, "")
	w := ts.do(t, http.MethodGet, callbackTarget(state), nil, oauthCookie)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	sessionCookie := findCookie(w, testCookieName)
	require.NotNil(t, sessionCookie)

	w = ts.do(t, http.MethodGet, "/api/auth/session", nil, sessionCookie)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "carol@example.com", user["email"])
	assert.Equal(t, "Carol", user["name"])

	// OAuth-only accounts have no password
	w = ts.do(t, http.MethodPost, "/api/auth/sign-in", gin.H{
		"email": "carol@example.com", "password": "",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOAuthCallback_LinksExistingUser(t *testing.T) {
	provider := &fakeProvider{identity: core.ExternalIdentity{
		Provider: "fake", Subject: "7", Email: "alice@example.com", Name: "Someone Else",
	}}
	ts := newTestServer(t, PasswordResetOptions{}, provider)
	ts.do(t, http.MethodPost, "/api/auth/sign-up", gin.H{
		"email": "alice@example.com", "password": "password123", "name": "Alice",
	})

	state, oauthCookie := startLogin(t, ts, "")
	w := ts.do(t, http.MethodGet, callbackTarget(state), nil, oauthCookie)
	require.Equal(t, http.StatusFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/auth/session", nil, findCookie(w, testCookieName))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice", decodeBody(t, w)["user"].(map[string]any)["name"])

	// The password still works
	w = ts.do(t, http.MethodPost, "/api/auth/sign-in", gin.H{
		"email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOAuthCallback_Redirect(t *testing.T) {
	provider := &fakeProvider{identity: core.ExternalIdentity{
		Provider: "fake", Subject: "1", Email: "dave@example.com",
	}}

	tests := []struct {
		name     string
		redirect string
		want     string
	}{
		{"relative path", "/dashboard?tab=profile", "/dashboard?tab=profile"},
		{"same host", testBaseURL + "/dashboard", testBaseURL + "/dashboard"},
		{"foreign host", "https://evil.example.com/", "/dashboard"},
		{"protocol relative", "//evil.example.com", "/dashboard"},
		{"tab between slashes", "/\t/evil.example.com", "/dashboard"},
		{"vertical tab between slashes", "/\v/evil.example.com", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, PasswordResetOptions{}, provider)

			state, oauthCookie := startLogin(t, ts, "?redirect="+url.QueryEscape(tt.redirect))
			w := ts.do(t, http.MethodGet, callbackTarget(state), nil, oauthCookie)
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestOAuthCallback_StateChecks(t *testing.T) {
	provider := &fakeProvider{identity: core.ExternalIdentity{
		Provider: "fake", Subject: "1", Email: "dave@example.com",
	}}
	ts := newTestServer(t, PasswordResetOptions{}, provider)

	t.Run("no session", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, callbackTarget("whatever"), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, findCookie(w, testCookieName))
	})

	t.Run("state mismatch", func(t *testing.T) {
		_, oauthCookie := startLogin(t, ts, "")
		w := ts.do(t, http.MethodGet, callbackTarget("forged"), nil, oauthCookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, findCookie(w, testCookieName))
	})

	t.Run("unknown provider", func(t *testing.T) {
		state, oauthCookie := startLogin(t, ts, "")
		w := ts.do(t, http.MethodGet, "/auth/callback/nope?code=abc&state="+state, nil, oauthCookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOAuthCallback_Failures(t *testing.T) {
	tests := []struct {
		name         string
		provider     *fakeProvider
		query        string
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "no verified email",
			provider:     &fakeProvider{identityErr: auth.ErrNoEmail},
			wantStatus:   http.StatusFound,
			wantLocation: "/sign-in?error=",
		},
		{
			name:         "empty email",
			provider:     &fakeProvider{identity: core.ExternalIdentity{Provider: "fake", Subject: "1"}},
			wantStatus:   http.StatusFound,
			wantLocation: "/sign-in?error=",
		},
		{
			name:         "user declined",
			provider:     &fakeProvider{},
			query:        "&error=access_denied",
			wantStatus:   http.StatusFound,
			wantLocation: "/sign-in?error=",
		},
		{
			name:       "exchange failure",
			provider:   &fakeProvider{exchangeErr: errors.New("bad code")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "provider API failure",
			provider:   &fakeProvider{identityErr: auth.ErrProviderAPI},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, PasswordResetOptions{}, tt.provider)

			state, oauthCookie := startLogin(t, ts, "")
			w := ts.do(t, http.MethodGet, callbackTarget(state)+tt.query, nil, oauthCookie)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Nil(t, findCookie(w, testCookieName))
			if tt.wantLocation != "" {
				assert.Contains(t, w.Header().Get("Location"), tt.wantLocation)
			}
		})
	}
}
