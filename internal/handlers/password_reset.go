package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-authgate/credgate/internal/services"

	"github.com/gin-gonic/gin"
)

// PasswordResetOptions controls what the reset-request endpoint discloses
type PasswordResetOptions struct {
	EchoLink            bool // include reset_link in the response
	ConcealUnknownEmail bool // answer 200 for unknown addresses
}

// PasswordResetHandler serves the two password reset endpoints
type PasswordResetHandler struct {
	resets *services.PasswordResetService
	opts   PasswordResetOptions
}

func NewPasswordResetHandler(
	resets *services.PasswordResetService,
	opts PasswordResetOptions,
) *PasswordResetHandler {
	return &PasswordResetHandler{resets: resets, opts: opts}
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetCompletion struct {
	NewPassword string `json:"newPassword"`
}

const msgResetSent = "Password reset email sent"

// RequestReset handles POST /api/auth/sent-email-reset
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	result, err := h.resets.RequestReset(c.Request.Context(), req.Email)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUserNotFound) && h.opts.ConcealUnknownEmail:
		c.JSON(http.StatusOK, gin.H{"message": msgResetSent})
		return
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
		return
	default:
		respondError(c, "Reset", err, "Email is required")
		return
	}

	body := gin.H{"message": msgResetSent}
	if h.opts.EchoLink {
		body["reset_link"] = result.Link
	}
	c.JSON(http.StatusOK, body)
}

// CompleteReset handles POST /api/auth/reset_password?token=
func (h *PasswordResetHandler) CompleteReset(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Token is required"})
		return
	}

	var req resetCompletion
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password is required"})
		return
	}

	err := h.resets.CompleteReset(c.Request.Context(), token, req.NewPassword)
	if err != nil {
		var message string
		switch {
		case errors.Is(err, services.ErrPasswordUnchanged):
			message = "Password is already set"
		case errors.Is(err, services.ErrInvalidResetToken):
			message = "Invalid or expired token"
		case errors.Is(err, services.ErrMissingResetToken):
			message = "Token is required"
		default:
			message = "Invalid password"
		}
		respondError(c, "Reset", err, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
