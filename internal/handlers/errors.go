package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/credgate/internal/services"

	"github.com/gin-gonic/gin"
)

const msgInternal = "Internal server error"

// statusForError maps service error categories to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingResetToken):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a JSON error body. Validation errors carry their field
// map, internal errors are logged and answered with a generic message.
func respondError(c *gin.Context, tag string, err error, message string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", tag, c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": msgInternal})
		return
	}

	body := gin.H{"error": message}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	c.JSON(status, body)
}
