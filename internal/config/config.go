package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the articleforge server.
type Config struct {
	Server   ServerConfig
	Gateway  GatewayConfig
	Gen      GenConfig
	Research ResearchConfig
	Output   OutputConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type GatewayConfig struct {
	// APIKey, when set, requires every tool call to present it as a bearer token.
	APIKey string
}

type GenConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Gemini           GeminiConfig
}

type GeminiConfig struct {
	APIKey        string
	BaseURL       string
	ProModel      string
	FlashModel    string
	ImageModel    string
	ResearchModel string
	Timeout       time.Duration
}

type ResearchConfig struct {
	// Timeout bounds how long the task runner keeps polling the upstream
	// research interaction before treating it as failed.
	Timeout      time.Duration
	PollInterval time.Duration
}

type OutputConfig struct {
	// Dir is the default destination for persisted reports and images when
	// the caller does not supply one.
	Dir string
}

var validProviders = map[string]bool{
	"gemini": true,
	"mock":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("ARTICLEFORGE_PORT", 8080),
			Env:  envString("ARTICLEFORGE_ENV", "development"),
		},
		Gateway: GatewayConfig{
			APIKey: os.Getenv("ARTICLEFORGE_API_KEY"),
		},
		Gen: GenConfig{
			Provider:         envString("GEN_PROVIDER", "gemini"),
			InferenceTimeout: envDurationSecs("GEN_INFERENCE_TIMEOUT_SECS", 120*time.Second),
			Gemini: GeminiConfig{
				APIKey:        os.Getenv("GOOGLE_API_KEY"),
				BaseURL:       envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
				ProModel:      envString("GEMINI_PRO_MODEL", "gemini-2.5-pro"),
				FlashModel:    envString("GEMINI_FLASH_MODEL", "gemini-2.5-flash"),
				ImageModel:    envString("GEMINI_IMAGE_MODEL", "imagen-3.0-generate-002"),
				ResearchModel: envString("GEMINI_RESEARCH_MODEL", "deep-research-pro"),
				Timeout:       envDurationSecs("GEMINI_TIMEOUT_SECS", 120*time.Second),
			},
		},
		Research: ResearchConfig{
			Timeout:      envDurationSecs("RESEARCH_TIMEOUT_SECS", 1800*time.Second),
			PollInterval: envDurationSecs("RESEARCH_POLL_INTERVAL_SECS", 30*time.Second),
		},
		Output: OutputConfig{
			Dir: os.Getenv("OUTPUT_PATH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !validProviders[c.Gen.Provider] {
		return fmt.Errorf("GEN_PROVIDER must be one of gemini, mock; got %q", c.Gen.Provider)
	}

	if c.Gen.Provider == "gemini" && c.Gen.Gemini.APIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required when GEN_PROVIDER is gemini")
	}

	if c.Research.PollInterval <= 0 {
		return fmt.Errorf("RESEARCH_POLL_INTERVAL_SECS must be positive")
	}
	if c.Research.Timeout < c.Research.PollInterval {
		return fmt.Errorf("RESEARCH_TIMEOUT_SECS must be at least RESEARCH_POLL_INTERVAL_SECS")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
