package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/cache"
	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/metrics"
	"github.com/go-authgate/credgate/internal/middleware"
	"github.com/go-authgate/credgate/internal/services"
	"github.com/go-authgate/credgate/internal/store"
	"github.com/go-authgate/credgate/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testBaseURL    = "http://localhost:8080"
	testCookieName = "session_token"
)

// recordingMailer keeps every message and fails when err is set
type recordingMailer struct {
	mu   sync.Mutex
	sent []core.MailMessage
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg core.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testServer struct {
	router   *gin.Engine
	mailer   *recordingMailer
	accounts *services.AccountService
	sessions *services.SessionService
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:              testBaseURL,
		JWTSecret:            "test-secret-key-for-jwt-signing",
		SessionExpiration:    720 * time.Hour,
		ResetTokenExpiration: time.Hour,
		SessionCookieName:    testCookieName,
		PasswordMinLength:    8,
		PasswordMaxLength:    72,
		PasswordRequireMixed: true,
		ResetURLBase:         testBaseURL + "/reset_password",
		MailFromName:         "Authorization Server",
		UserCacheTTL:         time.Minute,
	}
}

// newTestServer wires the handlers the way bootstrap does, on an in-memory
// SQLite store
func newTestServer(
	t *testing.T,
	opts PasswordResetOptions,
	providers ...auth.OAuthProvider,
) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	s, err := store.New(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	m := metrics.NewNoopMetrics()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	tokens := token.NewLocalTokenProvider(cfg)
	mailer := &recordingMailer{}
	policy := services.PasswordPolicyFromConfig(cfg)

	accounts := services.NewAccountService(s, hasher, policy, m)
	sessionSvc := services.NewSessionService(
		tokens, s, cache.NewMemoryCache[core.Identity](), cfg.UserCacheTTL, m,
	)
	resets := services.NewPasswordResetService(
		s, hasher, tokens, mailer, sessionSvc, policy,
		services.PasswordResetConfig{ResetURLBase: cfg.ResetURLBase, SenderName: cfg.MailFromName},
		m,
	)

	registry := auth.NewRegistry(providers...)
	sc := SessionCookie{Name: testCookieName}
	account := NewAccountHandler(accounts, sessionSvc, sc)
	reset := NewPasswordResetHandler(resets, opts)
	oauth := NewOAuthHandler(registry, accounts, sessionSvc, http.DefaultClient, sc, testBaseURL, m)
	pages := NewPageHandler(registry)
	requireSession := middleware.RequireSession(sessionSvc, testCookieName)

	r := gin.New()
	r.Use(sessions.Sessions("oauth_session", cookie.NewStore([]byte("test-session-secret"))))

	r.GET("/sign-in", pages.SignIn)
	r.GET("/sign-up", pages.SignUp)
	r.GET("/reset_password", pages.ResetPassword)
	r.GET("/dashboard", requireSession, pages.Dashboard)

	r.GET("/auth/login/:provider", oauth.LoginWithProvider)
	r.GET("/auth/callback/:provider", oauth.OAuthCallback)

	api := r.Group("/api/auth")
	api.POST("/sign-up", account.SignUp)
	api.POST("/sign-in", account.SignIn)
	api.POST("/sign-out", account.SignOut)
	api.GET("/session", requireSession, account.Session)
	api.POST("/sent-email-reset", reset.RequestReset)
	api.POST("/reset_password", reset.CompleteReset)

	return &testServer{router: r, mailer: mailer, accounts: accounts, sessions: sessionSvc}
}

// do sends a request; body is JSON-encoded unless it is a string
func (ts *testServer) do(
	t *testing.T,
	method, target string,
	body any,
	cookies ...*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signUp(t *testing.T, email, password string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/sign-up", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// lastResetToken extracts the token from the most recent reset email
func (ts *testServer) lastResetToken(t *testing.T) string {
	t.Helper()
	ts.mailer.mu.Lock()
	defer ts.mailer.mu.Unlock()
	require.NotEmpty(t, ts.mailer.sent)

	body := ts.mailer.sent[len(ts.mailer.sent)-1].TextBody
	start := strings.Index(body, testBaseURL+"/reset_password?token=")
	require.GreaterOrEqual(t, start, 0, body)

	link := body[start:]
	if end := strings.IndexAny(link, " \r\n"); end >= 0 {
		link = link[:end]
	}
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
