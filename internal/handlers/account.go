package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/middleware"
	"github.com/go-authgate/credgate/internal/models"
	"github.com/go-authgate/credgate/internal/services"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves the sign-up, sign-in and session endpoints
type AccountHandler struct {
	accounts *services.AccountService
	sessions *services.SessionService
	cookie   SessionCookie
}

func NewAccountHandler(
	accounts *services.AccountService,
	sessions *services.SessionService,
	cookie SessionCookie,
) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
		cookie:   cookie,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public view of a user record
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func userFromModel(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func userFromIdentity(id core.Identity) userResponse {
	return userResponse{ID: id.ID, Email: id.Email, Name: id.Name}
}

// SignUp handles POST /api/auth/sign-up
func (h *AccountHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.accounts.SignUp(c.Request.Context(), services.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		message := "Invalid sign-up request"
		if errors.Is(err, services.ErrEmailTaken) {
			message = "Email already exists"
		}
		respondError(c, "Auth", err, message)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userFromModel(user)})
}

// SignIn handles POST /api/auth/sign-in
func (h *AccountHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	identity, err := h.accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, "Auth", err, "Invalid email or password")
		return
	}

	token, err := h.sessions.Issue(ctx, identity, services.LoginMethodPassword)
	if err != nil {
		respondError(c, "Auth", err, "")
		return
	}

	h.cookie.set(c, token.TokenString, token.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"user":       userFromIdentity(identity),
		"token":      token.TokenString,
		"expires_at": token.ExpiresAt,
	})
}

// Session handles GET /api/auth/session, behind middleware.RequireSession
func (h *AccountHandler) Session(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userFromIdentity(identity)})
}

// SignOut handles POST /api/auth/sign-out. Tokens are stateless, so this
// only drops the cookie.
func (h *AccountHandler) SignOut(c *gin.Context) {
	h.cookie.clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
