package templates

import "fmt"

// ResetEmailSubject is the subject line of the password reset email
const ResetEmailSubject = "Password Reset Request"

// ResetPasswordEmailText is the plain-text body of the reset email
func ResetPasswordEmailText(props ResetEmailProps) string {
	return fmt.Sprintf("Click the link to reset your password: %s\n\n"+
		"If you didn't request a password reset, please ignore this email.\n", props.Link)
}
