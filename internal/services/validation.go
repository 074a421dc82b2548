package services

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-authgate/credgate/internal/config"

	"github.com/go-playground/validator/v10"
)

// PasswordPolicy is applied to every password a user chooses
type PasswordPolicy struct {
	MinLength    int
	MaxLength    int  // bcrypt ignores input beyond 72 bytes
	RequireMixed bool // at least one letter and one digit
}

// PasswordPolicyFromConfig builds the policy from PASSWORD_* settings
func PasswordPolicyFromConfig(cfg *config.Config) PasswordPolicy {
	return PasswordPolicy{
		MinLength:    cfg.PasswordMinLength,
		MaxLength:    cfg.PasswordMaxLength,
		RequireMixed: cfg.PasswordRequireMixed,
	}
}

// Check returns a user-facing message describing the first violated rule,
// or "" when password is acceptable. The minimum counts characters, the
// maximum counts bytes.
func (p PasswordPolicy) Check(password string) string {
	return passwordMessage(validate.Var(password, p.tag(true)))
}

// CheckBounds only enforces presence and the byte limit
func (p PasswordPolicy) CheckBounds(password string) string {
	return passwordMessage(validate.Var(password, p.tag(false)))
}

func (p PasswordPolicy) tag(full bool) string {
	rules := []string{"required"}
	if full && p.MinLength > 0 {
		rules = append(rules, "min="+strconv.Itoa(p.MinLength))
	}
	if p.MaxLength > 0 {
		rules = append(rules, "maxbytes="+strconv.Itoa(p.MaxLength))
	}
	if full && p.RequireMixed {
		rules = append(rules, "letterdigit")
	}
	return strings.Join(rules, ",")
}

func passwordMessage(err error) string {
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes"
	case "letterdigit":
		return "must contain at least one letter and one digit"
	default:
		return "is invalid"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// bcrypt rejects input beyond 72 bytes, so the limit is on bytes not runes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	_ = v.RegisterValidation("letterdigit", func(fl validator.FieldLevel) bool {
		var letter, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return letter && digit
	})
	return v
}

// signUpFields holds the declarative rules for sign-up input
type signUpFields struct {
	Email string `validate:"required,email,max=254"`
	Name  string `validate:"max=100"`
}

// fieldMessages converts validator errors into a field -> message map
// keyed by the JSON field name
func fieldMessages(err error) map[string]string {
	out := map[string]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["request"] = "is invalid"
		return out
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if _, seen := out[field]; seen {
			continue
		}
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "email":
			out[field] = "must be a valid email address"
		case "max":
			out[field] = "must be at most " + fe.Param() + " characters"
		default:
			out[field] = "is invalid"
		}
	}
	return out
}
