package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/models"
	"github.com/go-authgate/credgate/internal/store"

	"github.com/google/uuid"
)

// Login method label for credential sign-in
const LoginMethodPassword = "password"

// Sign-up metric results
const (
	signUpSuccess  = "success"
	signUpInvalid  = "invalid"
	signUpConflict = "conflict"
	signUpError    = "error"
)

// SignUpInput is the credential sign-up request
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// AccountService creates users and verifies sign-in attempts
type AccountService struct {
	store   core.UserStore
	hasher  core.PasswordHasher
	policy  PasswordPolicy
	metrics core.Recorder
}

func NewAccountService(
	s core.UserStore,
	hasher core.PasswordHasher,
	policy PasswordPolicy,
	m core.Recorder,
) *AccountService {
	return &AccountService{
		store:   s,
		hasher:  hasher,
		policy:  policy,
		metrics: m,
	}
}

// SignUp registers a credential user. The email is stored as given apart
// from surrounding whitespace; lookups are case-sensitive.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	fields := map[string]string{}
	if err := validate.Struct(signUpFields{Email: in.Email, Name: in.Name}); err != nil {
		fields = fieldMessages(err)
	}
	if msg := s.policy.Check(in.Password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		s.metrics.RecordSignUp(signUpInvalid)
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.store.GetUserByEmail(ctx, in.Email); err == nil {
		s.metrics.RecordSignUp(signUpConflict)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		s.metrics.RecordSignUp(signUpError)
		return nil, internalError("lookup user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.RecordSignUp(signUpError)
		return nil, internalError("hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Provider:     models.AuthSourceLocal,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost the race against a concurrent sign-up with the same email
		if errors.Is(err, store.ErrEmailConflict) {
			s.metrics.RecordSignUp(signUpConflict)
			return nil, ErrEmailTaken
		}
		s.metrics.RecordSignUp(signUpError)
		return nil, internalError("create user", err)
	}

	log.Printf("[Auth] New user registered: id=%s", user.ID)
	s.metrics.RecordSignUp(signUpSuccess)
	return user, nil
}

// SignIn verifies an email/password pair. Unknown email, OAuth-only account
// and wrong password all yield ErrInvalidCredentials.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (core.Identity, error) {
	start := time.Now()

	identity, err := s.signIn(ctx, strings.TrimSpace(email), password)
	s.metrics.RecordLogin(LoginMethodPassword, err == nil, time.Since(start))
	return identity, err
}

func (s *AccountService) signIn(ctx context.Context, email, password string) (core.Identity, error) {
	if email == "" || password == "" {
		return core.Identity{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return core.Identity{}, ErrInvalidCredentials
		}
		return core.Identity{}, internalError("lookup user", err)
	}

	if !user.HasPassword() || !s.hasher.Compare(user.PasswordHash, password) {
		return core.Identity{}, ErrInvalidCredentials
	}

	return identityOf(user), nil
}

// SignInWithOAuth resolves a verified external identity to a local user,
// provisioning one without a password on first sign-in. Idempotent on email.
func (s *AccountService) SignInWithOAuth(
	ctx context.Context,
	ext core.ExternalIdentity,
) (core.Identity, error) {
	start := time.Now()

	identity, err := s.signInWithOAuth(ctx, ext)
	s.metrics.RecordLogin(ext.Provider, err == nil, time.Since(start))
	return identity, err
}

func (s *AccountService) signInWithOAuth(
	ctx context.Context,
	ext core.ExternalIdentity,
) (core.Identity, error) {
	email := strings.TrimSpace(ext.Email)
	if email == "" {
		return core.Identity{}, ErrMissingEmail
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		if !user.IsExternal() {
			log.Printf("[OAuth] %s sign-in matched local account id=%s", ext.Provider, user.ID)
		}
		return identityOf(user), nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return core.Identity{}, internalError("lookup user", err)
	}

	user = &models.User{
		ID:         uuid.New().String(),
		Email:      email,
		Name:       strings.TrimSpace(ext.Name),
		Provider:   ext.Provider,
		ProviderID: ext.Subject,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, store.ErrEmailConflict) {
			return core.Identity{}, internalError("create user", err)
		}
		// A concurrent callback created the record first
		existing, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return core.Identity{}, internalError("reload user", err)
		}
		return identityOf(existing), nil
	}

	log.Printf("[OAuth] New user provisioned: id=%s provider=%s", user.ID, ext.Provider)
	return identityOf(user), nil
}

func identityOf(u *models.User) core.Identity {
	return core.Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}
