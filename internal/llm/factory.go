package llm

import (
	"context"
	"fmt"

	"github.com/eduwise/studyplan/internal/logger"
	"github.com/eduwise/studyplan/internal/store"
)

// NewProvider builds the provider named by cfg, wrapped so that each
// attempt is recorded and transient failures are retried:
// caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(base, events, log), cfg.Retry), nil
}
