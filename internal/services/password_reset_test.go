package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/store"
	"github.com/go-authgate/credgate/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestReset_SendsLink(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, "a@x.com", "Secret123")

	msg := env.captureMail(t, nil)
	res, err := env.resets.RequestReset(context.Background(), "a@x.com")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Link, "http://localhost:8080/reset_password?token="))
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)

	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.TextBody, res.Link)
	assert.Contains(t, msg.HTMLBody, "Reset Password")

	claims, err := env.tokens.ValidateResetToken(context.Background(), tokenFromLink(t, res.Link))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRequestReset_BaseWithQuery(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.ResetURLBase = "https://app.example.com/reset?lang=en"
	env.build(env.store)
	env.signUp(t, "a@x.com", "Secret123")

	env.captureMail(t, nil)
	res, err := env.resets.RequestReset(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Link, "https://app.example.com/reset?lang=en&token="))
}

func TestRequestReset_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.resets.RequestReset(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.resets.RequestReset(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.resets.RequestReset(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestReset_MailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "a@x.com", "Secret123")

	env.captureMail(t, errors.New("smtp: 421 service not available"))
	res, err := env.resets.RequestReset(context.Background(), "a@x.com")

	assert.ErrorIs(t, err, ErrMailDelivery)
	assert.ErrorIs(t, err, ErrInternal)
	require.NotNil(t, res, "minted link is still returned")
	assert.NotEmpty(t, res.Link)
}

func TestRequestReset_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.build(&faultyStore{UserStore: env.store, getByEmailErr: errors.New("db down")})

	_, err := env.resets.RequestReset(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrInternal)
}

func TestCompleteReset_UpdatesHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signUp(t, "a@x.com", "Secret123")
	tok := env.requestResetToken(t, "a@x.com")

	require.NoError(t, env.resets.CompleteReset(ctx, tok, "NewPass456"))

	stored, err := env.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, env.hasher.Compare(stored.PasswordHash, "NewPass456"))
	assert.False(t, env.hasher.Compare(stored.PasswordHash, "Secret123"))
}

func TestCompleteReset_SamePasswordIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signUp(t, "a@x.com", "Secret123")
	before, err := env.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)

	tok := env.requestResetToken(t, "a@x.com")
	err = env.resets.CompleteReset(ctx, tok, "Secret123")
	assert.ErrorIs(t, err, ErrPasswordUnchanged)
	assert.ErrorIs(t, err, ErrConflict)

	after, err := env.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestCompleteReset_InvalidTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signUp(t, "a@x.com", "Secret123")
	valid := env.requestResetToken(t, "a@x.com")

	expiredProvider := token.NewLocalTokenProvider(&config.Config{
		BaseURL:              env.cfg.BaseURL,
		JWTSecret:            testJWTSecret,
		ResetTokenExpiration: -time.Minute,
	})
	expired, err := expiredProvider.GenerateResetToken(ctx, user.ID)
	require.NoError(t, err)

	forged, err := token.NewLocalTokenProvider(&config.Config{
		BaseURL:              env.cfg.BaseURL,
		JWTSecret:            "attacker-secret",
		ResetTokenExpiration: time.Hour,
	}).GenerateResetToken(ctx, user.ID)
	require.NoError(t, err)

	session, err := env.tokens.GenerateSessionToken(ctx, identityOf(user))
	require.NoError(t, err)

	unknownUser, err := env.tokens.GenerateResetToken(ctx, "no-such-user")
	require.NoError(t, err)

	tokens := map[string]string{
		"expired":       expired.TokenString,
		"wrong secret":  forged.TokenString,
		"tampered":      tamper(valid),
		"session token": session.TokenString,
		"unknown user":  unknownUser.TokenString,
		"garbage":       "abc",
	}

	for name, tok := range tokens {
		for _, pw := range []string{"NewPass456", "Secret123", "short", "alllettersnodigit"} {
			t.Run(name+"/"+pw, func(t *testing.T) {
				err := env.resets.CompleteReset(ctx, tok, pw)
				assert.ErrorIs(t, err, ErrInvalidResetToken)
				assert.ErrorIs(t, err, ErrAuthentication)
			})
		}
	}

	stored, err := env.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, env.hasher.Compare(stored.PasswordHash, "Secret123"))
}

func TestCompleteReset_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.resets.CompleteReset(ctx, "", "NewPass456")
	assert.ErrorIs(t, err, ErrMissingResetToken)
	assert.ErrorIs(t, err, ErrValidation)

	for _, pw := range []string{"", strings.Repeat("a1", 37)} {
		err = env.resets.CompleteReset(ctx, "some-token", pw)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "password %q", pw)
		assert.Contains(t, verr.Fields, "newPassword")
	}

	// Policy violations are not reported before the token is verified
	for _, pw := range []string{"short1", "alllettersnodigit"} {
		err = env.resets.CompleteReset(ctx, "some-token", pw)
		assert.ErrorIs(t, err, ErrInvalidResetToken, "password %q", pw)
	}
}

func TestCompleteReset_WeakPasswordWithValidToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUp(t, "a@x.com", "Secret123")
	tok := env.requestResetToken(t, "a@x.com")

	for _, pw := range []string{"short1", "alllettersnodigit"} {
		err := env.resets.CompleteReset(ctx, tok, pw)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "password %q", pw)
		assert.Contains(t, verr.Fields, "newPassword")
	}

	_, err := env.accounts.SignIn(ctx, "a@x.com", "Secret123")
	assert.NoError(t, err)
}

func TestCompleteReset_ReplayIsAllowedUntilExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUp(t, "a@x.com", "Secret123")
	tok := env.requestResetToken(t, "a@x.com")

	require.NoError(t, env.resets.CompleteReset(ctx, tok, "NewPass456"))
	require.NoError(t, env.resets.CompleteReset(ctx, tok, "Third789x"))

	_, err := env.accounts.SignIn(ctx, "a@x.com", "Third789x")
	assert.NoError(t, err)
}

func TestCompleteReset_OAuthUserGetsPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.SignInWithOAuth(ctx, core.ExternalIdentity{Provider: "google", Email: "g@x.com"})
	require.NoError(t, err)

	tok := env.requestResetToken(t, "g@x.com")
	require.NoError(t, env.resets.CompleteReset(ctx, tok, "NewPass456"))

	_, err = env.accounts.SignIn(ctx, "g@x.com", "NewPass456")
	assert.NoError(t, err)
}

func TestCompleteReset_InvalidatesProfileCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signUp(t, "a@x.com", "Secret123")
	require.NoError(t, env.cache.Set(ctx, UserCacheKey(user.ID), identityOf(user), time.Minute))

	tok := env.requestResetToken(t, "a@x.com")
	require.NoError(t, env.resets.CompleteReset(ctx, tok, "NewPass456"))

	_, err := env.cache.Get(ctx, UserCacheKey(user.ID))
	assert.Error(t, err)
}

func TestCompleteReset_StoreFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUp(t, "a@x.com", "Secret123")
	tok := env.requestResetToken(t, "a@x.com")

	env.build(&faultyStore{UserStore: env.store, updateErr: errors.New("disk full")})
	assert.ErrorIs(t, env.resets.CompleteReset(ctx, tok, "NewPass456"), ErrInternal)

	env.build(&faultyStore{UserStore: env.store, updateErr: store.ErrRecordNotFound})
	assert.ErrorIs(t, env.resets.CompleteReset(ctx, tok, "NewPass456"), ErrInvalidResetToken)

	env.build(&faultyStore{UserStore: env.store, getByIDErr: errors.New("db down")})
	assert.ErrorIs(t, env.resets.CompleteReset(ctx, tok, "NewPass456"), ErrInternal)
}

// tamper flips one character in the middle of the payload segment
func tamper(tok string) string {
	i := strings.Index(tok, ".") + 4
	c := byte('A')
	if tok[i] == 'A' {
		c = 'B'
	}
	return tok[:i] + string(c) + tok[i+1:]
}
