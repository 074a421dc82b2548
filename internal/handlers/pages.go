package handlers

import (
	"net/http"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/middleware"
	"github.com/go-authgate/credgate/internal/templates"

	"github.com/gin-gonic/gin"
)

// PageHandler renders the HTML pages
type PageHandler struct {
	providers auth.Registry
}

func NewPageHandler(providers auth.Registry) *PageHandler {
	return &PageHandler{providers: providers}
}

// SignIn renders the sign-in page with one button per configured provider.
// ?mode=sign-up switches the form to account creation.
func (h *PageHandler) SignIn(c *gin.Context) {
	h.renderSignIn(c, c.Query("mode") == "sign-up")
}

// SignUp renders the sign-in page in account creation mode
func (h *PageHandler) SignUp(c *gin.Context) {
	h.renderSignIn(c, true)
}

func (h *PageHandler) renderSignIn(c *gin.Context, signUp bool) {
	sorted := h.providers.Sorted()
	buttons := make([]templates.OAuthProvider, 0, len(sorted))
	for _, p := range sorted {
		buttons = append(buttons, templates.OAuthProvider{
			Name:        p.Name(),
			DisplayName: p.DisplayName(),
		})
	}

	templates.RenderTempl(c, http.StatusOK, templates.SignInPage(templates.SignInPageProps{
		Error:          c.Query("error"),
		SignUp:         signUp,
		OAuthProviders: buttons,
	}))
}

// ResetPassword renders the new-password form; without a token there is
// nothing to reset.
func (h *PageHandler) ResetPassword(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Redirect(http.StatusFound, "/sign-in")
		return
	}
	templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(
		templates.ResetPasswordPageProps{Token: token},
	))
}

// Dashboard renders the signed-in landing page, behind middleware.RequireSession
func (h *PageHandler) Dashboard(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Redirect(http.StatusFound, "/sign-in")
		return
	}
	templates.RenderTempl(c, http.StatusOK, templates.DashboardPage(templates.DashboardPageProps{
		UserID: identity.ID,
		Name:   identity.Name,
		Email:  identity.Email,
	}))
}
