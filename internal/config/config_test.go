package config

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", "hash")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("expected default port 3000, got %q", cfg.Port)
	}
	if cfg.RateLimitTokens != 60 || cfg.RateLimitInterval != time.Minute {
		t.Errorf("unexpected rate limit defaults: %d per %v", cfg.RateLimitTokens, cfg.RateLimitInterval)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.EnrichTimeout != 90*time.Second {
		t.Errorf("expected 90s enrich timeout, got %v", cfg.EnrichTimeout)
	}
	if cfg.GeminiModel != "gemini-pro" {
		t.Errorf("expected default model, got %q", cfg.GeminiModel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("RATE_LIMIT_TOKENS", "10")
	t.Setenv("RATE_LIMIT_INTERVAL", "30s")
	t.Setenv("MAX_ATTEMPTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.RateLimitTokens != 10 || cfg.RateLimitInterval != 30*time.Second {
		t.Errorf("rate limit overrides not applied: %d per %v", cfg.RateLimitTokens, cfg.RateLimitInterval)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.MaxAttempts)
	}
}

func TestLoad_HashesPlaintextPassword(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AdminPasswordHash == "" || cfg.AdminPasswordHash == "hunter2" {
		t.Fatalf("expected bcrypt hash, got %q", cfg.AdminPasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte("hunter2")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestValidate_MissingSecrets(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty config")
	}
	cfg.JWTSecret = "s"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without api key")
	}
	cfg.GeminiAPIKey = "k"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without admin credentials")
	}
}
