package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	RedisAddr   string

	// JWTSecret must be supplied externally. A randomly generated boot
	// secret would silently invalidate every issued token on restart,
	// so startup fails loudly instead.
	JWTSecret string
	JWTIssuer string

	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	MFATokenTTL          time.Duration

	BcryptCost           int
	MaxLoginAttempts     int
	LockoutDuration      time.Duration
	RequireVerifiedEmail bool

	AuthRateLimit    int
	AuthRateWindow   time.Duration
	GlobalRateLimit  int
	GlobalRateWindow time.Duration

	SweepInterval time.Duration

	ResendAPIKey string
	EmailFrom    string
	AppBaseURL   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         envString("APP_ENV", "development"),
		HTTPAddr:    envString("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: envString("JWT_ISSUER", "shulehub"),

		AccessTokenTTL:       envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:      envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		VerificationTokenTTL: envDuration("VERIFICATION_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:        envDuration("RESET_TOKEN_TTL", 30*time.Minute),
		MFATokenTTL:          envDuration("MFA_TOKEN_TTL", 5*time.Minute),

		BcryptCost:           envInt("BCRYPT_COST", 12),
		MaxLoginAttempts:     envInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:      envDuration("LOCKOUT_DURATION", 30*time.Minute),
		RequireVerifiedEmail: envBool("REQUIRE_EMAIL_VERIFICATION", false),

		AuthRateLimit:    envInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:   envDuration("AUTH_RATE_WINDOW", 15*time.Minute),
		GlobalRateLimit:  envInt("GLOBAL_RATE_LIMIT", 100),
		GlobalRateWindow: envDuration("GLOBAL_RATE_WINDOW", 15*time.Minute),

		SweepInterval: envDuration("SESSION_SWEEP_INTERVAL", time.Hour),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),
		AppBaseURL:   os.Getenv("APP_BASE_URL"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func ConnectDB(databaseURL string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  databaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
	})
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
