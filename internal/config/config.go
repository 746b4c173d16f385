package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port string

	// Persistence
	DatabasePath string

	// Auth
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// Gemini enrichment
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Rate limiting and retries
	RateLimitTokens   int
	RateLimitInterval time.Duration
	MaxAttempts       int
	EnrichTimeout     time.Duration

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool
}

func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "3000"),

		DatabasePath: envOr("DATABASE_PATH", "applicants.db"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          envDuration("TOKEN_TTL", time.Hour),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOr("GEMINI_MODEL", "gemini-pro"),
		GeminiBaseURL: envOr("GEMINI_BASE_URL", ""),

		RateLimitTokens:   envInt("RATE_LIMIT_TOKENS", 60),
		RateLimitInterval: envDuration("RATE_LIMIT_INTERVAL", time.Minute),
		MaxAttempts:       envInt("MAX_ATTEMPTS", 3),
		EnrichTimeout:     envDuration("ENRICH_TIMEOUT", 90*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	// Plaintext password in the environment is hashed once at startup so
	// the rest of the service only ever sees the bcrypt hash.
	if cfg.AdminPasswordHash == "" {
		if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return cfg, fmt.Errorf("hash admin password: %w", err)
			}
			cfg.AdminPasswordHash = string(hash)
		}
	}

	if cfg.RateLimitTokens <= 0 {
		cfg.RateLimitTokens = 60
	}
	if cfg.RateLimitInterval <= 0 {
		cfg.RateLimitInterval = time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = 90 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required")
	}
	if c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
