package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the provider used by the LLM scorer.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures backoff for transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses the mock provider so that nothing leaves the machine
// until a real provider is configured.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderMock,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     time.Second,
			Multiplier:  2,
		},
	}
}

// ConfigFromEnv overlays STUDYPLAN_LLM_* variables on the defaults. When
// STUDYPLAN_LLM_PROVIDER is unset, the standard vendor key variables are
// tried in the order Anthropic, OpenAI, Gemini, OpenRouter.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	set(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	set(&cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY")

	set(&cfg.Anthropic.APIKey, "STUDYPLAN_ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.Model, "STUDYPLAN_ANTHROPIC_MODEL")
	set(&cfg.OpenAI.APIKey, "STUDYPLAN_OPENAI_API_KEY")
	set(&cfg.OpenAI.Model, "STUDYPLAN_OPENAI_MODEL")
	set(&cfg.OpenAI.BaseURL, "STUDYPLAN_OPENAI_BASE_URL")
	set(&cfg.Gemini.APIKey, "STUDYPLAN_GEMINI_API_KEY")
	set(&cfg.Gemini.Model, "STUDYPLAN_GEMINI_MODEL")
	set(&cfg.OpenRouter.APIKey, "STUDYPLAN_OPENROUTER_API_KEY")
	set(&cfg.OpenRouter.Model, "STUDYPLAN_OPENROUTER_MODEL")

	if p := os.Getenv("STUDYPLAN_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
		return cfg
	}
	switch {
	case cfg.Anthropic.APIKey != "":
		cfg.Provider = ProviderAnthropic
	case cfg.OpenAI.APIKey != "":
		cfg.Provider = ProviderOpenAI
	case cfg.Gemini.APIKey != "":
		cfg.Provider = ProviderGemini
	case cfg.OpenRouter.APIKey != "":
		cfg.Provider = ProviderOpenRouter
	}
	return cfg
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
