// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ewed/internal/ai"
	"ewed/internal/certificate"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Valkey (Redis-compatible form store + export cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// AI provider settings. AIImageProvider empty means AIProvider.
	AIProvider      string // "openai", "gemini", "claude", "mistral"
	AIImageProvider string // "openai", "gemini"

	OpenAIKey        string
	OpenAIModel      string
	OpenAIModelImage string
	OpenAIBaseURL    string

	GeminiKey        string
	GeminiModel      string
	GeminiModelImage string
	GeminiBaseURL    string

	ClaudeKey     string
	ClaudeModel   string
	ClaudeBaseURL string

	MistralKey     string
	MistralModel   string
	MistralBaseURL string

	// MockDelay is the artificial latency of the mock generators.
	MockDelay time.Duration

	// PersonaFile optionally replaces the built-in witness persona.
	PersonaFile string

	// S3-compatible object storage (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// ChromeBin is the browser used for PNG export; empty searches PATH.
	ChromeBin string
	// ExportEnabled turns the PNG export on or off.
	ExportEnabled bool

	// Validation policy
	RequireVows  bool
	RequirePhoto bool

	// RateLimit is the number of expensive requests a client may make per minute.
	RateLimit int
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Only set it behind a reverse proxy that overwrites them.
	TrustProxy bool
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value cannot be
// parsed or critical values are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AIProvider:      envOrDefault("AI_PROVIDER", "gemini"),
		AIImageProvider: os.Getenv("AI_IMAGE_PROVIDER"),

		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIModelImage: envOrDefault("OPENAI_MODEL_IMAGE", "gpt-image-1"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		GeminiKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiModelImage: envOrDefault("GEMINI_MODEL_IMAGE", "gemini-2.5-flash-image"),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),

		ClaudeKey:     os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:   envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-6"),
		ClaudeBaseURL: envOrDefault("CLAUDE_BASE_URL", "https://api.anthropic.com"),

		MistralKey:     os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: envOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),

		PersonaFile: os.Getenv("PERSONA_FILE"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "ewed-public"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		ChromeBin: os.Getenv("CHROME_BIN"),
	}

	var err error
	if cfg.ValkeyDB, err = envInt("VALKEY_DB", 0); err != nil {
		return nil, err
	}
	if cfg.MockDelay, err = envDuration("MOCK_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.ExportEnabled, err = envBool("EXPORT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RequireVows, err = envBool("REQUIRE_VOWS", false); err != nil {
		return nil, err
	}
	if cfg.RequirePhoto, err = envBool("REQUIRE_PHOTO", true); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = envInt("RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimit < 1 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %d", cfg.RateLimit)
	}
	if cfg.TrustProxy, err = envBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.ValkeyPassword == "" {
			return nil, fmt.Errorf("VALKEY_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ProviderConfigs returns the AI provider settings keyed by provider name.
func (c *Config) ProviderConfigs() map[string]ai.ProviderConfig {
	return map[string]ai.ProviderConfig{
		"openai":  {APIKey: c.OpenAIKey, Model: c.OpenAIModel, ModelImage: c.OpenAIModelImage, BaseURL: c.OpenAIBaseURL},
		"gemini":  {APIKey: c.GeminiKey, Model: c.GeminiModel, ModelImage: c.GeminiModelImage, BaseURL: c.GeminiBaseURL},
		"claude":  {APIKey: c.ClaudeKey, Model: c.ClaudeModel, BaseURL: c.ClaudeBaseURL},
		"mistral": {APIKey: c.MistralKey, Model: c.MistralModel, BaseURL: c.MistralBaseURL},
	}
}

// Validation returns the certificate validation policy.
func (c *Config) Validation() certificate.Options {
	return certificate.Options{RequireVows: c.RequireVows, RequirePhoto: c.RequirePhoto}
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}
