package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/services"
)

// Provider names accepted by LLM_PROVIDER
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	defaultMaxVersions     = 5
	defaultUpstreamTimeout = 90 * time.Second
	defaultAllowedOrigins  = "http://localhost:3000"
)

// Default models per provider, used when LLM_MODEL is not set
var defaultModels = map[string]string{
	ProviderGroq:   "llama-3.1-8b-instant",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-2.5-flash",
}

// Config holds the application configuration
// Note: This is a stateless service - no database or auth secrets needed
type Config struct {
	// Environment
	Environment string
	Port        string

	// Upstream text generation
	LLMProvider     string        // groq, openai or gemini
	LLMModel        string        // Model identifier sent upstream
	LLMBaseURL      string        // Optional override for OpenAI-compatible endpoints
	GroqAPIKey      string        // Groq API key (OpenAI-compatible)
	OpenAIAPIKey    string        // OpenAI API key
	GeminiAPIKey    string        // Google Gemini API key
	UpstreamTimeout time.Duration // Per-version upstream call timeout

	// Request limits
	MaxVersions int

	// Cross-origin access
	AllowedOrigins []string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// problems found while parsing, reported by Validate
	parseErrs []error
}

func Load() *Config {
	cfg := &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq)),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		GroqAPIKey:        getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", defaultAllowedOrigins)),
	}

	cfg.LLMModel = getEnv("LLM_MODEL", defaultModels[cfg.LLMProvider])

	maxVersions, err := strconv.Atoi(getEnv("MAX_VERSIONS", strconv.Itoa(defaultMaxVersions)))
	if err != nil {
		cfg.parseErrs = append(cfg.parseErrs, fmt.Errorf("MAX_VERSIONS: %w", err))
		maxVersions = defaultMaxVersions
	}
	cfg.MaxVersions = maxVersions

	timeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", defaultUpstreamTimeout.String()))
	if err != nil {
		cfg.parseErrs = append(cfg.parseErrs, fmt.Errorf("UPSTREAM_TIMEOUT: %w", err))
		timeout = defaultUpstreamTimeout
	}
	cfg.UpstreamTimeout = timeout

	return cfg
}

// Validate reports startup misconfiguration. A missing credential for the
// selected provider is fatal; it is never surfaced per request.
func (c *Config) Validate() error {
	errs := append([]error{}, c.parseErrs...)

	switch c.LLMProvider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
		if c.APIKey() == "" {
			errs = append(errs, fmt.Errorf("%s API key not configured (set %s)", c.LLMProvider, apiKeyEnv(c.LLMProvider)))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q (allowed: groq, openai, gemini)", c.LLMProvider))
	}

	if c.LLMModel == "" {
		errs = append(errs, errors.New("LLM_MODEL is empty"))
	}
	if c.MaxVersions < 1 {
		errs = append(errs, fmt.Errorf("MAX_VERSIONS must be at least 1, got %d", c.MaxVersions))
	}
	if c.MaxVersions > services.MaxDistinctVersions {
		errs = append(errs, fmt.Errorf("MAX_VERSIONS must be at most %d, got %d", services.MaxDistinctVersions, c.MaxVersions))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout))
	}
	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("ALLOWED_ORIGINS entry %q must be \"*\" or start with http:// or https://", origin))
		}
	}

	return errors.Join(errs...)
}

// APIKey returns the credential for the selected provider
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsAllOrigins reports whether ALLOWED_ORIGINS is empty or contains the "*" wildcard
func (c *Config) AllowsAllOrigins() bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func apiKeyEnv(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated list, dropping blanks and trailing slashes
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
