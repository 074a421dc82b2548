package templates

// OAuthProvider is a sign-in button on the sign-in page
type OAuthProvider struct {
	Name        string
	DisplayName string
}

// ErrorPageProps contains properties for the error page
type ErrorPageProps struct {
	Error   string
	Message string
}

// SignInPageProps contains properties for the sign-in page
type SignInPageProps struct {
	Error          string // e.g. ?error=... after a failed OAuth callback
	SignUp         bool   // render the account creation form
	OAuthProviders []OAuthProvider
}

func (p SignInPageProps) title() string {
	if p.SignUp {
		return "Sign up"
	}
	return "Sign in"
}

// ResetPasswordPageProps contains properties for the reset form
type ResetPasswordPageProps struct {
	Token string
}

// DashboardPageProps contains properties for the signed-in landing page
type DashboardPageProps struct {
	UserID string
	Name   string
	Email  string
}

func (p DashboardPageProps) displayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// ResetEmailProps contains properties for the password reset email
type ResetEmailProps struct {
	Link       string
	SenderName string
}

func (p ResetEmailProps) sender() string {
	if p.SenderName == "" {
		return "Authorization Server"
	}
	return p.SenderName
}
