package performance

import (
	"context"
	"math"

	"github.com/eduwise/studyplan/internal/plan"
)

// Normalization caps.
const (
	DurationCapMinutes = 120.0
	MaxDifficulty      = 10.0
	VelocityCap        = 2.0
)

// Vector is the normalized metric input shared by every scorer:
// completion rate, duration, difficulty, velocity, each in [0,1].
type Vector [4]float64

// Normalize maps raw metrics onto [0,1] using fixed caps.
func Normalize(m plan.Metrics) Vector {
	return Vector{
		clamp01(m.SessionCompletionRate),
		clamp01(math.Min(m.AverageSessionDurationMinutes/DurationCapMinutes, 1)),
		clamp01(m.TopicDifficulty / MaxDifficulty),
		clamp01(math.Min(m.LearningVelocity/VelocityCap, 1)),
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Scorer maps a normalized metric vector to a performance score in [0,1].
type Scorer interface {
	Score(ctx context.Context, v Vector) (float64, error)
	Name() string
}

// Weights are the coefficients of WeightedScorer.
type Weights struct {
	CompletionRate float64
	Duration       float64
	Difficulty     float64
	Velocity       float64
}

// DefaultWeights sum to 1 so the score stays within [0,1].
var DefaultWeights = Weights{
	CompletionRate: 0.4,
	Duration:       0.2,
	Difficulty:     0.2,
	Velocity:       0.2,
}

// WeightedScorer is the deterministic scorer and the fallback for every
// other strategy.
type WeightedScorer struct {
	Weights Weights
}

// NewWeightedScorer returns a WeightedScorer using DefaultWeights.
func NewWeightedScorer() WeightedScorer {
	return WeightedScorer{Weights: DefaultWeights}
}

func (w WeightedScorer) Score(_ context.Context, v Vector) (float64, error) {
	return w.score(v), nil
}

func (w WeightedScorer) score(v Vector) float64 {
	s := v[0]*w.Weights.CompletionRate +
		v[1]*w.Weights.Duration +
		v[2]*w.Weights.Difficulty +
		v[3]*w.Weights.Velocity
	return clamp01(s)
}

func (w WeightedScorer) Name() string { return "weighted" }
