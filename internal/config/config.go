package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"regdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	InsightAPI InsightAPIConfig
	AI         AIConfig
	Synth      SynthConfig
	Catalog    CatalogConfig
	Export     ExportConfig
}

// ServerConfig holds dashboard web server settings
type ServerConfig struct {
	Port       string
	GinMode    string
	SessionTTL time.Duration
}

// InsightAPIConfig holds settings of the standalone insight API
type InsightAPIConfig struct {
	Port           string
	Enabled        bool
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// AIConfig selects the insight provider
type AIConfig struct {
	Provider  string // template, anthropic or remote
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	RemoteURL string
	Delay     time.Duration
	Timeout   time.Duration
}

// SynthConfig tunes the mock result synthesizer
type SynthConfig struct {
	Seed            uint64 // 0 means a random seed
	ConsistentTiers bool
}

// CatalogConfig points at an optional YAML variable catalog
type CatalogConfig struct {
	Path string
}

// ExportConfig holds the default coefficient table layout for downloads
type ExportConfig struct {
	Title       string
	Decimals    int
	OptionsPath string // optional YAML table options applied over Title and Decimals
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}

	synthConfig, err := loadSynthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load synthesizer configuration")
	}

	config := &Config{
		Server:     *loadServerConfig(),
		InsightAPI: *loadInsightAPIConfig(),
		AI:         *aiConfig,
		Synth:      *synthConfig,
		Catalog:    CatalogConfig{Path: getEnvOrDefault("VARIABLE_CATALOG", "")},
		Export: ExportConfig{
			Title:       getEnvOrDefault("EXPORT_TITLE", "Regression Results"),
			Decimals:    getEnvIntOrDefault("EXPORT_DECIMALS", 3),
			OptionsPath: getEnvOrDefault("EXPORT_OPTIONS", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:       getEnvOrDefault("PORT", "8080"),
		GinMode:    getEnvOrDefault("GIN_MODE", "debug"),
		SessionTTL: getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
	}
}

func loadInsightAPIConfig() *InsightAPIConfig {
	return &InsightAPIConfig{
		Port:           getEnvOrDefault("INSIGHT_API_PORT", "8081"),
		Enabled:        getEnvBoolOrDefault("INSIGHT_API_ENABLED", true),
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		RequestTimeout: getEnvDurationOrDefault("INSIGHT_API_TIMEOUT", 60*time.Second),
	}
}

func loadAIConfig() (*AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("INSIGHT_PROVIDER", "template"))

	cfg := &AIConfig{
		Provider:  provider,
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		Model:     getEnvOrDefault("LLM_MODEL", "claude-3-haiku-20240307"),
		MaxTokens: getEnvIntOrDefault("LLM_MAX_TOKENS", 1000),
		BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
		RemoteURL: os.Getenv("INSIGHT_API_URL"),
		Delay:     getEnvDurationOrDefault("INSIGHT_DELAY", 2*time.Second),
		Timeout:   getEnvDurationOrDefault("LLM_TIMEOUT", 30*time.Second),
	}

	switch provider {
	case "template":
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, errors.ConfigInvalid("ANTHROPIC_API_KEY is required when INSIGHT_PROVIDER=anthropic")
		}
	case "remote":
		if cfg.RemoteURL == "" {
			return nil, errors.ConfigInvalid("INSIGHT_API_URL is required when INSIGHT_PROVIDER=remote")
		}
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("INSIGHT_PROVIDER must be template, anthropic or remote, got %q", provider))
	}
	return cfg, nil
}

func loadSynthConfig() (*SynthConfig, error) {
	cfg := &SynthConfig{
		ConsistentTiers: getEnvBoolOrDefault("SYNTH_CONSISTENT_TIERS", false),
	}
	if value := os.Getenv("SYNTH_SEED"); value != "" {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("SYNTH_SEED must be an unsigned integer, got %q", value))
		}
		cfg.Seed = seed
	}
	return cfg, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.InsightAPI.Enabled && config.InsightAPI.Port == config.Server.Port {
		return errors.ConfigInvalid("INSIGHT_API_PORT must differ from PORT")
	}
	if config.AI.MaxTokens <= 0 {
		return errors.ConfigInvalid("LLM_MAX_TOKENS must be positive")
	}
	if config.Export.Decimals < 1 || config.Export.Decimals > 6 {
		return errors.ConfigInvalid("EXPORT_DECIMALS must be between 1 and 6")
	}
	if config.AI.Delay < 0 {
		return errors.ConfigInvalid("INSIGHT_DELAY must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
