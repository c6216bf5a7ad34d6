package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderStub            = "stub"
	ProviderHostedChat      = "hosted-chat"
	ProviderAlternateHosted = "alternate-hosted"
	ProviderGemini          = "gemini"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"chat.db"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	LLMProvider string `env:"LLM_PROVIDER" envDefault:"stub"`

	HostedChatAPIKey  string `env:"HOSTED_CHAT_API_KEY"`
	HostedChatModel   string `env:"HOSTED_CHAT_MODEL" envDefault:"llama-3.1-8b-instant"`
	HostedChatBaseURL string `env:"HOSTED_CHAT_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`

	AlternateAPIKey string `env:"ALTERNATE_API_KEY"`
	AlternateModel  string `env:"ALTERNATE_MODEL" envDefault:"meta-llama/Meta-Llama-3-8B-Instruct"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"60s"`
	AllowEmptyKeys      bool          `env:"ALLOW_EMPTY_KEYS" envDefault:"false"`
	ConversationLocking bool          `env:"CONVERSATION_LOCKING" envDefault:"true"`
}

// LoadConfig reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func LoadConfig() (Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, dotenv, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LLMProvider = NormalizeProvider(cfg.LLMProvider)
	return cfg, dotenv, nil
}

// NormalizeProvider lower-cases the provider name and maps the legacy
// vendor names onto the backend they select.
func NormalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "groq":
		return ProviderHostedChat
	case "huggingface":
		return ProviderAlternateHosted
	case "":
		return ProviderStub
	}
	return name
}

// Validate checks that the selected provider has the credentials it needs.
// With AllowEmptyKeys set, a keyless hosted provider is swapped for the stub
// so the service can run offline.
func (c *Config) Validate() error {
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}

	var missing string
	switch c.LLMProvider {
	case ProviderHostedChat:
		if c.HostedChatAPIKey == "" {
			missing = "HOSTED_CHAT_API_KEY"
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missing = "GEMINI_API_KEY"
		}
	case ProviderStub, ProviderAlternateHosted:
	default:
		return fmt.Errorf("unsupported provider: %s", c.LLMProvider)
	}

	if missing == "" {
		return nil
	}
	if c.AllowEmptyKeys {
		c.LLMProvider = ProviderStub
		return nil
	}
	return fmt.Errorf("%s environment variable is required when using the %s provider", missing, c.LLMProvider)
}
