package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/store"
	"github.com/go-authgate/credgate/internal/templates"
)

// Reset metric results
const (
	resetSent         = "sent"
	resetInvalid      = "invalid"
	resetUnknownEmail = "unknown_email"
	resetMailError    = "mail_error"
	resetError        = "error"

	resetSuccess      = "success"
	resetInvalidToken = "invalid_token"
	resetUnchanged    = "unchanged"
)

// ResetRequestResult describes a minted reset link
type ResetRequestResult struct {
	Link      string
	ExpiresAt time.Time
}

// PasswordResetConfig holds the settings of PasswordResetService
type PasswordResetConfig struct {
	ResetURLBase string // token is appended as ?token=
	SenderName   string // shown in the email footer
}

// PasswordResetService runs the two-phase reset: mail a signed link, then
// accept a new password for the user bound to that link. Reset tokens are
// not persisted and stay usable until they expire.
type PasswordResetService struct {
	store    core.UserStore
	hasher   core.PasswordHasher
	tokens   core.TokenProvider
	mailer   core.Mailer
	sessions *SessionService
	policy   PasswordPolicy
	cfg      PasswordResetConfig
	metrics  core.Recorder
}

func NewPasswordResetService(
	s core.UserStore,
	hasher core.PasswordHasher,
	tokens core.TokenProvider,
	mailer core.Mailer,
	sessions *SessionService,
	policy PasswordPolicy,
	cfg PasswordResetConfig,
	m core.Recorder,
) *PasswordResetService {
	return &PasswordResetService{
		store:    s,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		sessions: sessions,
		policy:   policy,
		cfg:      cfg,
		metrics:  m,
	}
}

// RequestReset mails a reset link to the owner of email. On mail failure the
// minted link is still returned together with ErrMailDelivery.
func (s *PasswordResetService) RequestReset(
	ctx context.Context,
	email string,
) (*ResetRequestResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		s.metrics.RecordPasswordResetRequest(resetInvalid)
		return nil, NewValidationError("email", "is required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordPasswordResetRequest(resetUnknownEmail)
			return nil, ErrUserNotFound
		}
		s.metrics.RecordPasswordResetRequest(resetError)
		return nil, internalError("lookup user", err)
	}

	token, err := s.tokens.GenerateResetToken(ctx, user.ID)
	if err != nil {
		s.metrics.RecordPasswordResetRequest(resetError)
		return nil, internalError("sign reset token", err)
	}

	result := &ResetRequestResult{
		Link:      s.resetLink(token.TokenString),
		ExpiresAt: token.ExpiresAt,
	}

	msg, err := s.resetMessage(ctx, user.Email, result.Link)
	if err != nil {
		s.metrics.RecordPasswordResetRequest(resetError)
		return result, internalError("render reset email", err)
	}

	start := time.Now()
	err = s.mailer.Send(ctx, msg)
	s.metrics.RecordMailSent(err == nil, time.Since(start))
	if err != nil {
		log.Printf("[Reset] Failed to send reset email for user=%s: %v", user.ID, err)
		s.metrics.RecordPasswordResetRequest(resetMailError)
		return result, errors.Join(ErrMailDelivery, err)
	}

	log.Printf("[Reset] Reset email sent for user=%s", user.ID)
	s.metrics.RecordPasswordResetRequest(resetSent)
	return result, nil
}

func (s *PasswordResetService) resetLink(token string) string {
	sep := "?"
	if strings.Contains(s.cfg.ResetURLBase, "?") {
		sep = "&"
	}
	return s.cfg.ResetURLBase + sep + "token=" + url.QueryEscape(token)
}

func (s *PasswordResetService) resetMessage(
	ctx context.Context,
	to, link string,
) (core.MailMessage, error) {
	props := templates.ResetEmailProps{Link: link, SenderName: s.cfg.SenderName}

	html, err := templates.RenderString(ctx, templates.ResetPasswordEmail(props))
	if err != nil {
		return core.MailMessage{}, err
	}

	return core.MailMessage{
		To:       to,
		Subject:  templates.ResetEmailSubject,
		TextBody: templates.ResetPasswordEmailText(props),
		HTMLBody: html,
	}, nil
}

// CompleteReset sets a new password for the user bound to token. Choosing
// the current password again is rejected with ErrPasswordUnchanged.
func (s *PasswordResetService) CompleteReset(
	ctx context.Context,
	token, newPassword string,
) error {
	err := s.completeReset(ctx, token, newPassword)
	s.metrics.RecordPasswordResetCompletion(completionResult(err))
	return err
}

func (s *PasswordResetService) completeReset(
	ctx context.Context,
	token, newPassword string,
) error {
	if token == "" {
		return ErrMissingResetToken
	}
	if msg := s.policy.CheckBounds(newPassword); msg != "" {
		return NewValidationError("newPassword", msg)
	}

	claims, err := s.tokens.ValidateResetToken(ctx, token)
	if err != nil {
		log.Printf("[Reset] Rejected reset token: %v", err)
		return ErrInvalidResetToken
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return internalError("lookup user", err)
	}

	// The rest of the policy only applies once the token is known good
	if msg := s.policy.Check(newPassword); msg != "" {
		return NewValidationError("newPassword", msg)
	}

	// Compare before hashing: a reset to the current password writes nothing
	if user.HasPassword() && s.hasher.Compare(user.PasswordHash, newPassword) {
		return ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internalError("hash password", err)
	}

	if err := s.store.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return internalError("update password", err)
	}

	if s.sessions != nil {
		s.sessions.Forget(ctx, user.ID)
	}

	log.Printf("[Reset] Password reset completed for user=%s", user.ID)
	return nil
}

func completionResult(err error) string {
	switch {
	case err == nil:
		return resetSuccess
	case errors.Is(err, ErrValidation):
		return resetInvalid
	case errors.Is(err, ErrInvalidResetToken):
		return resetInvalidToken
	case errors.Is(err, ErrPasswordUnchanged):
		return resetUnchanged
	default:
		return resetError
	}
}
