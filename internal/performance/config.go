package performance

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eduwise/studyplan/internal/llm"
	"github.com/eduwise/studyplan/internal/logger"
	"github.com/eduwise/studyplan/internal/store"
)

// Scorer strategies.
const (
	StrategyWeighted = "weighted"
	StrategyModel    = "model"
	StrategyLLM      = "llm"
)

// DefaultTimeout bounds a single primary scorer call.
const DefaultTimeout = 2 * time.Second

// Config selects and configures the primary scorer.
type Config struct {
	// Strategy is one of "weighted", "model", "llm".
	Strategy string

	// Timeout bounds each primary scorer call.
	Timeout time.Duration

	// ModelPath is the YAML weights file for the "model" strategy.
	ModelPath string
}

// DefaultConfig returns the weighted strategy with the default timeout.
func DefaultConfig() Config {
	return Config{
		Strategy: StrategyWeighted,
		Timeout:  DefaultTimeout,
	}
}

// ConfigFromEnv reads STUDYPLAN_SCORER, STUDYPLAN_SCORER_TIMEOUT and
// STUDYPLAN_MODEL_PATH over the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if s := os.Getenv("STUDYPLAN_SCORER"); s != "" {
		cfg.Strategy = s
	}
	if t := os.Getenv("STUDYPLAN_SCORER_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if p := os.Getenv("STUDYPLAN_MODEL_PATH"); p != "" {
		cfg.ModelPath = p
	}
	return cfg
}

// Validate checks the strategy name and its required settings.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyWeighted, StrategyLLM:
		return nil
	case StrategyModel:
		if c.ModelPath == "" {
			return fmt.Errorf("STUDYPLAN_MODEL_PATH is required for the model scorer")
		}
		return nil
	default:
		return fmt.Errorf("unknown scorer strategy: %q", c.Strategy)
	}
}

// NewAnalyzerFromConfig builds an analyzer for cfg. A primary scorer that
// cannot be set up is logged and left out, so the analyzer runs on the
// weighted scorer alone.
func NewAnalyzerFromConfig(ctx context.Context, cfg Config, llmCfg llm.Config, events store.EventRepo, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	primary, err := buildPrimary(ctx, cfg, llmCfg, events, log)
	if err != nil {
		log.Warn("primary scorer unavailable, using weighted scorer", "strategy", cfg.Strategy, "error", err)
		primary = nil
	}
	return NewAnalyzer(primary, cfg.Timeout, log)
}

func buildPrimary(ctx context.Context, cfg Config, llmCfg llm.Config, events store.EventRepo, log *logger.Logger) (Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyModel:
		return LoadModel(cfg.ModelPath)
	case StrategyLLM:
		if err := llmCfg.Validate(); err != nil {
			return nil, err
		}
		p, err := llm.NewProvider(ctx, llmCfg, events, log)
		if err != nil {
			return nil, err
		}
		return NewLLMScorer(p), nil
	}
	return nil, nil
}
