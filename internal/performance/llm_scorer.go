package performance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eduwise/studyplan/internal/llm"
)

const llmScorerSystem = `You estimate a student's study performance from four normalized metrics, each between 0 and 1:
- completion: fraction of scheduled study sessions completed
- duration: average completed session length relative to a two hour cap
- difficulty: average topic difficulty relative to the maximum of 10
- velocity: distinct topics completed per hour relative to a cap of 2

Return a single performance score between 0 and 1 and a one sentence rationale.
Completion matters most. Be consistent: identical inputs must yield identical scores.`

// llmScoreSchema constrains the provider's response.
var llmScoreSchema = &llm.Schema{
	Name:        "performance-score",
	Description: "A predicted study performance score",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Predicted performance between 0 and 1",
				"minimum":     0,
				"maximum":     1,
			},
			"rationale": map[string]any{
				"type":        "string",
				"description": "One sentence explaining the score",
			},
		},
		"required":             []any{"score", "rationale"},
		"additionalProperties": false,
	},
}

type llmScoreResponse struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// LLMScorer asks a language model provider to score the metric vector.
type LLMScorer struct {
	provider llm.Provider
}

// NewLLMScorer wraps provider as a Scorer.
func NewLLMScorer(provider llm.Provider) *LLMScorer {
	return &LLMScorer{provider: provider}
}

func (s *LLMScorer) Score(ctx context.Context, v Vector) (float64, error) {
	ctx = llm.WithPurpose(ctx, "performance-score")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: llmScorerSystem,
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("completion=%.4f duration=%.4f difficulty=%.4f velocity=%.4f",
				v[0], v[1], v[2], v[3]),
		}},
		Schema:    llmScoreSchema,
		MaxTokens: 256,
	})
	if err != nil {
		return 0, fmt.Errorf("generate score: %w", err)
	}

	var out llmScoreResponse
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return 0, fmt.Errorf("decode score: %w", err)
	}
	return out.Score, nil
}

func (s *LLMScorer) Name() string {
	return "llm:" + s.provider.ModelID()
}
