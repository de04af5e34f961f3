package performance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/eduwise/studyplan/internal/logger"
	"github.com/eduwise/studyplan/internal/plan"
)

// Analysis is the result of scoring a set of metrics.
type Analysis struct {
	Score           float64          `json:"score"`
	Source          string           `json:"source"`
	Normalized      Vector           `json:"normalized"`
	Patterns        Patterns         `json:"patterns"`
	Indicators      Indicators       `json:"indicators"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Analyzer scores metrics with a primary strategy and falls back to the
// weighted scorer when the primary is missing, fails, or times out.
type Analyzer struct {
	primary  Scorer
	fallback WeightedScorer
	timeout  time.Duration
	log      *logger.Logger
}

// NewAnalyzer creates an analyzer. primary may be nil, in which case the
// weighted scorer is used directly.
func NewAnalyzer(primary Scorer, timeout time.Duration, log *logger.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		primary:  primary,
		fallback: NewWeightedScorer(),
		timeout:  timeout,
		log:      log.With("component", "performance.Analyzer"),
	}
}

// Analyze scores m and derives patterns and recommendations. It never
// fails: primary scorer errors are logged and the fallback score is used.
func (a *Analyzer) Analyze(ctx context.Context, m plan.Metrics) Analysis {
	v := Normalize(m)
	score, source := a.score(ctx, v)
	patterns := Classify(score, v)
	return Analysis{
		Score:           score,
		Source:          source,
		Normalized:      v,
		Patterns:        patterns,
		Indicators:      patterns.Indicators(),
		Recommendations: Recommend(m, patterns),
	}
}

func (a *Analyzer) score(ctx context.Context, v Vector) (float64, string) {
	if a.primary == nil {
		return a.fallback.score(v), a.fallback.Name()
	}
	s, err := a.runPrimary(ctx, v)
	if err != nil {
		a.log.Warn("scorer failed, using weighted fallback", "error", err)
		return a.fallback.score(v), a.fallback.Name()
	}
	return s, a.primary.Name()
}

type scoreResult struct {
	score float64
	err   error
}

// runPrimary calls the primary scorer under the analyzer timeout. A scorer
// that ignores its context is abandoned when the timeout fires.
func (a *Analyzer) runPrimary(ctx context.Context, v Vector) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	name := a.primary.Name()
	ch := make(chan scoreResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- scoreResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		s, err := a.primary.Score(ctx, v)
		ch <- scoreResult{score: s, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return 0, &plan.ComputationError{Scorer: name, Err: r.err}
		}
		if math.IsNaN(r.score) || r.score < 0 || r.score > 1 {
			return 0, &plan.ComputationError{Scorer: name, Err: fmt.Errorf("score %v outside [0,1]", r.score)}
		}
		return r.score, nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", a.timeout, err)
		}
		return 0, &plan.ComputationError{Scorer: name, Err: err}
	}
}
