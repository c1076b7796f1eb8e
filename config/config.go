// Package config loads application configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Providers selectable via MODEL_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all runtime settings for the assistant.
type Config struct {
	HTTPAddr     string
	DatabasePath string

	ModelProvider   string
	ModelName       string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	TwilioAccountSID string
	TwilioAuthToken  string

	TavilyAPIKey        string
	GoogleCalendarToken string
	GoogleCalendarID    string

	Instructions  string
	MaxToolCycles int
	TurnTimeout   time.Duration
	HistoryLimit  int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first if present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DatabasePath: getEnv("DATABASE_PATH", "data/assistant.db"),

		ModelProvider:   getEnv("MODEL_PROVIDER", ProviderOpenAI),
		ModelName:       os.Getenv("MODEL_NAME"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),

		TavilyAPIKey:        os.Getenv("TAVILY_API_KEY"),
		GoogleCalendarToken: os.Getenv("GOOGLE_CALENDAR_TOKEN"),
		GoogleCalendarID:    getEnv("GOOGLE_CALENDAR_ID", "primary"),

		Instructions:  os.Getenv("SYSTEM_INSTRUCTIONS"),
		MaxToolCycles: getEnvInt("MAX_TOOL_CYCLES", 8),
		TurnTimeout:   getEnvDuration("TURN_TIMEOUT", 60*time.Second),
		HistoryLimit:  getEnvInt("HISTORY_LIMIT", 20),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise only fail at request time.
func (c *Config) Validate() error {
	switch c.ModelProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when MODEL_PROVIDER=%s", ProviderOpenAI)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when MODEL_PROVIDER=%s", ProviderAnthropic)
		}
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider)
	}

	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	if c.MaxToolCycles <= 0 {
		return fmt.Errorf("MAX_TOOL_CYCLES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
