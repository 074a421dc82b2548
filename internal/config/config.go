package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-authgate/credgate/internal/store"

	"github.com/joho/godotenv"
)

// Mailer mode constants
const (
	MailerModeLog  = "log"
	MailerModeSMTP = "smtp"
)

// SMTP TLS policy constants
const (
	SMTPTLSMandatory     = "mandatory"
	SMTPTLSOpportunistic = "opportunistic"
	SMTPTLSNone          = "none"
)

// User cache type constants
const (
	UserCacheTypeMemory = "memory"
	UserCacheTypeRedis  = "redis"
)

// Placeholder secrets that must be replaced in production
const (
	defaultJWTSecret     = "your-256-bit-secret-change-in-production"
	defaultSessionSecret = "session-secret-change-in-production"
)

// bcrypt only looks at the first 72 bytes of its input
const maxBcryptPasswordLength = 72

type Config struct {
	// Server settings
	ServerAddr            string
	BaseURL               string
	IsProduction          bool
	ServerShutdownTimeout time.Duration

	// JWT settings
	JWTSecret            string
	SessionExpiration    time.Duration // Session token lifetime (default: 720h = 30 days)
	ResetTokenExpiration time.Duration // Reset token lifetime (default: 1h)

	// Session cookie settings
	SessionCookieName string // Cookie carrying the session token
	SessionSecret     string // Signs the OAuth state cookie
	OAuthStateMaxAge  int    // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration
	DBCloseTimeout time.Duration

	// Password policy
	PasswordMinLength    int
	PasswordMaxLength    int
	PasswordRequireMixed bool // at least one letter and one digit
	BcryptCost           int

	// Password reset
	ResetURLBase                     string // Link target, token appended as ?token=
	PasswordResetEchoLink            bool   // Include the reset link in the API response
	PasswordResetConcealUnknownEmail bool   // Answer 200 for unknown emails

	// Mail
	MailerMode    string // "log" or "smtp"
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPTLSPolicy string // "mandatory", "opportunistic" or "none"
	SMTPTimeout   time.Duration
	MailFrom      string
	MailFromName  string

	// OAuth settings
	// Google OAuth
	GoogleOAuthEnabled     bool
	GoogleClientID         string
	GoogleClientSecret     string
	GoogleOAuthRedirectURL string
	GoogleOAuthScopes      []string

	// GitHub OAuth
	GitHubOAuthEnabled     bool
	GitHubClientID         string
	GitHubClientSecret     string
	GitHubOAuthRedirectURL string
	GitHubOAuthScopes      []string

	// OAuth HTTP Client Settings
	OAuthTimeout            time.Duration // HTTP client timeout for OAuth requests (default: 15s)
	OAuthInsecureSkipVerify bool          // Skip TLS verification for OAuth (dev/testing only, default: false)

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string        // Optional bearer token for /metrics
	MetricsGaugeUpdateInterval time.Duration // users_total refresh period

	// User cache
	UserCacheType    string // "memory" or "redis"
	UserCacheTTL     time.Duration
	CacheInitTimeout time.Duration

	// Redis (user cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "credgate.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")

	return &Config{
		ServerAddr:            getEnv("SERVER_ADDR", ":8080"),
		BaseURL:               baseURL,
		IsProduction:          getEnv("ENVIRONMENT", "development") == "production",
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),

		JWTSecret:            getEnv("JWT_SECRET", defaultJWTSecret),
		SessionExpiration:    getEnvDuration("SESSION_EXPIRATION", 720*time.Hour), // 30 days
		ResetTokenExpiration: getEnvDuration("RESET_TOKEN_EXPIRATION", time.Hour),

		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session_token"),
		SessionSecret:     getEnv("SESSION_SECRET", defaultSessionSecret),
		OAuthStateMaxAge:  getEnvInt("OAUTH_STATE_MAX_AGE", 600),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout: getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),

		PasswordMinLength:    getEnvInt("PASSWORD_MIN_LENGTH", 8),
		PasswordMaxLength:    getEnvInt("PASSWORD_MAX_LENGTH", maxBcryptPasswordLength),
		PasswordRequireMixed: getEnvBool("PASSWORD_REQUIRE_MIXED", true),
		BcryptCost:           getEnvInt("BCRYPT_COST", 10),

		ResetURLBase:                     getEnv("RESET_URL_BASE", baseURL+"/reset_password"),
		PasswordResetEchoLink:            getEnvBool("PASSWORD_RESET_ECHO_LINK", true),
		PasswordResetConcealUnknownEmail: getEnvBool("PASSWORD_RESET_CONCEAL_UNKNOWN_EMAIL", false),

		MailerMode:    getEnv("MAILER_MODE", MailerModeLog),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPTLSPolicy: getEnv("SMTP_TLS_POLICY", SMTPTLSMandatory),
		SMTPTimeout:   getEnvDuration("SMTP_TIMEOUT", 15*time.Second),
		MailFrom:      getEnv("MAIL_FROM", getEnv("SMTP_USERNAME", "")),
		MailFromName:  getEnv("MAIL_FROM_NAME", "Authorization Server"),

		// Google OAuth
		GoogleOAuthEnabled:     getEnvBool("GOOGLE_OAUTH_ENABLED", false),
		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleOAuthRedirectURL: getEnv("GOOGLE_REDIRECT_URL", baseURL+"/auth/callback/google"),
		GoogleOAuthScopes: getEnvSlice(
			"GOOGLE_SCOPES",
			[]string{"openid", "email", "profile"},
		),

		// GitHub OAuth
		GitHubOAuthEnabled:     getEnvBool("GITHUB_OAUTH_ENABLED", false),
		GitHubClientID:         getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:     getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubOAuthRedirectURL: getEnv("GITHUB_REDIRECT_URL", baseURL+"/auth/callback/github"),
		GitHubOAuthScopes:      getEnvSlice("GITHUB_SCOPES", []string{"user:email"}),

		// OAuth HTTP Client Settings
		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),

		UserCacheType:    getEnv("USER_CACHE_TYPE", UserCacheTypeMemory),
		UserCacheTTL:     getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
		CacheInitTimeout: getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if !store.IsSupportedDriver(c.DatabaseDriver) {
		return fmt.Errorf("invalid DATABASE_DRIVER value: %q (must be sqlite or postgres)", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.IsProduction && c.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed in production")
	}
	if c.SessionExpiration <= 0 {
		return fmt.Errorf("SESSION_EXPIRATION must be positive, got %s", c.SessionExpiration)
	}
	if c.ResetTokenExpiration <= 0 {
		return fmt.Errorf("RESET_TOKEN_EXPIRATION must be positive, got %s", c.ResetTokenExpiration)
	}

	if c.PasswordMinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1, got %d", c.PasswordMinLength)
	}
	if c.PasswordMaxLength > maxBcryptPasswordLength || c.PasswordMaxLength < c.PasswordMinLength {
		return fmt.Errorf(
			"PASSWORD_MAX_LENGTH must be between PASSWORD_MIN_LENGTH (%d) and %d, got %d",
			c.PasswordMinLength,
			maxBcryptPasswordLength,
			c.PasswordMaxLength,
		)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	switch c.MailerMode {
	case MailerModeLog:
	case MailerModeSMTP:
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required when MAILER_MODE=smtp")
		}
		if c.MailFrom == "" {
			return errors.New("MAIL_FROM is required when MAILER_MODE=smtp")
		}
		switch c.SMTPTLSPolicy {
		case SMTPTLSMandatory, SMTPTLSOpportunistic, SMTPTLSNone:
		default:
			return fmt.Errorf(
				"invalid SMTP_TLS_POLICY value: %q (must be mandatory, opportunistic or none)",
				c.SMTPTLSPolicy,
			)
		}
	default:
		return fmt.Errorf("invalid MAILER_MODE value: %q (must be log or smtp)", c.MailerMode)
	}

	switch c.UserCacheType {
	case UserCacheTypeMemory:
	case UserCacheTypeRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when USER_CACHE_TYPE=redis")
		}
	default:
		return fmt.Errorf(
			"invalid USER_CACHE_TYPE value: %q (must be memory or redis)",
			c.UserCacheType,
		)
	}
	if c.MetricsEnabled && c.MetricsGaugeUpdateInterval <= 0 {
		return fmt.Errorf(
			"METRICS_GAUGE_UPDATE_INTERVAL must be positive, got %s",
			c.MetricsGaugeUpdateInterval,
		)
	}
	if c.UserCacheTTL <= 0 {
		return fmt.Errorf("USER_CACHE_TTL must be positive, got %s", c.UserCacheTTL)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
