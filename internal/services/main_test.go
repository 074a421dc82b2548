package services

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/cache"
	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/metrics"
	"github.com/go-authgate/credgate/internal/mocks"
	"github.com/go-authgate/credgate/internal/models"
	"github.com/go-authgate/credgate/internal/store"
	"github.com/go-authgate/credgate/internal/token"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-for-jwt-signing"

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:              "http://localhost:8080",
		JWTSecret:            testJWTSecret,
		SessionExpiration:    720 * time.Hour,
		ResetTokenExpiration: time.Hour,
		PasswordMinLength:    8,
		PasswordMaxLength:    72,
		PasswordRequireMixed: true,
		ResetURLBase:         "http://localhost:8080/reset_password",
		MailFromName:         "Authorization Server",
		UserCacheTTL:         5 * time.Minute,
	}
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testEnv wires the services the way bootstrap does, with a mock mailer
type testEnv struct {
	cfg      *config.Config
	store    *store.Store
	hasher   *auth.BcryptHasher
	tokens   *token.LocalTokenProvider
	cache    *cache.MemoryCache[core.Identity]
	mailer   *mocks.MockMailer
	accounts *AccountService
	sessions *SessionService
	resets   *PasswordResetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	env := &testEnv{
		cfg:    cfg,
		store:  setupTestStore(t),
		hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		tokens: token.NewLocalTokenProvider(cfg),
		cache:  cache.NewMemoryCache[core.Identity](),
		mailer: mocks.NewMockMailer(gomock.NewController(t)),
	}
	env.build(env.store)
	return env
}

// build (re)creates the services on top of userStore
func (e *testEnv) build(userStore core.UserStore) {
	m := metrics.NewNoopMetrics()
	policy := PasswordPolicyFromConfig(e.cfg)

	e.accounts = NewAccountService(userStore, e.hasher, policy, m)
	e.sessions = NewSessionService(e.tokens, userStore, e.cache, e.cfg.UserCacheTTL, m)
	e.resets = NewPasswordResetService(
		userStore, e.hasher, e.tokens, e.mailer, e.sessions, policy,
		PasswordResetConfig{ResetURLBase: e.cfg.ResetURLBase, SenderName: e.cfg.MailFromName},
		m,
	)
}

// captureMail expects one Send and stores the message
func (e *testEnv) captureMail(t *testing.T, sendErr error) *core.MailMessage {
	t.Helper()
	var msg core.MailMessage
	e.mailer.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m core.MailMessage) error {
			msg = m
			return sendErr
		}).
		Times(1)
	return &msg
}

func (e *testEnv) signUp(t *testing.T, email, password string) *models.User {
	t.Helper()
	u, err := e.accounts.SignUp(context.Background(), SignUpInput{Email: email, Password: password})
	require.NoError(t, err)
	return u
}

// requestResetToken runs a successful reset request and returns the token
func (e *testEnv) requestResetToken(t *testing.T, email string) string {
	t.Helper()
	e.captureMail(t, nil)
	res, err := e.resets.RequestReset(context.Background(), email)
	require.NoError(t, err)
	return tokenFromLink(t, res.Link)
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

// faultyStore injects errors in front of a real store
type faultyStore struct {
	core.UserStore
	getByEmailErr error
	getByIDErr    error
	createErr     error
	updateErr     error
}

func (f *faultyStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getByEmailErr != nil {
		return nil, f.getByEmailErr
	}
	return f.UserStore.GetUserByEmail(ctx, email)
}

func (f *faultyStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.UserStore.GetUserByID(ctx, id)
}

func (f *faultyStore) CreateUser(ctx context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.UserStore.CreateUser(ctx, u)
}

func (f *faultyStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.UserStore.UpdatePasswordHash(ctx, id, hash)
}
