package performance

import (
	"github.com/eduwise/studyplan/internal/plan"
)

// Level is a coarse classification of one performance signal.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelSlow     Level = "slow"
	LevelModerate Level = "moderate"
	LevelFast     Level = "fast"
)

// Patterns classify the score and two normalized signals. They only drive
// recommendation selection.
type Patterns struct {
	Completion Level `json:"completion"`
	Efficiency Level `json:"efficiency"`
	Progress   Level `json:"progress"`
}

// Classify buckets the score (completion), normalized duration
// (efficiency) and normalized velocity (progress).
func Classify(score float64, v Vector) Patterns {
	var p Patterns
	switch {
	case score < 0.4:
		p.Completion = LevelLow
	case score <= 0.7:
		p.Completion = LevelMedium
	default:
		p.Completion = LevelHigh
	}
	switch {
	case v[1] < 0.3:
		p.Efficiency = LevelLow
	case v[1] > 0.8:
		p.Efficiency = LevelHigh
	default:
		p.Efficiency = LevelMedium
	}
	switch {
	case v[3] < 0.2:
		p.Progress = LevelSlow
	case v[3] > 0.6:
		p.Progress = LevelFast
	default:
		p.Progress = LevelModerate
	}
	return p
}

// Indicators summarize each pattern as 0.3, 0.6 or 0.9.
type Indicators struct {
	CompletionTrend    float64 `json:"completion_trend"`
	DurationEfficiency float64 `json:"duration_efficiency"`
	LearningProgress   float64 `json:"learning_progress"`
}

// Indicators maps the patterns onto their summary values.
func (p Patterns) Indicators() Indicators {
	return Indicators{
		CompletionTrend:    indicator(p.Completion == LevelHigh, p.Completion == LevelMedium),
		DurationEfficiency: indicator(p.Efficiency == LevelHigh, p.Efficiency == LevelMedium),
		LearningProgress:   indicator(p.Progress == LevelFast, p.Progress == LevelModerate),
	}
}

func indicator(high, medium bool) float64 {
	switch {
	case high:
		return 0.9
	case medium:
		return 0.6
	default:
		return 0.3
	}
}

// Priority of a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Recommendation is one piece of advice derived from the metrics.
type Recommendation struct {
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// Thresholds on raw metrics used by Recommend.
const (
	ShortSessionMinutes = 30
	LongSessionMinutes  = 180
	HardTopicDifficulty = 7
)

// Recommend emits every recommendation whose rule matches.
func Recommend(m plan.Metrics, p Patterns) []Recommendation {
	recs := []Recommendation{}

	switch p.Completion {
	case LevelLow:
		recs = append(recs, Recommendation{
			Type:     "completion",
			Priority: PriorityHigh,
			Message:  "Your session completion rate is low. Set smaller, more achievable goals or split sessions into shorter chunks.",
		})
	case LevelMedium:
		recs = append(recs, Recommendation{
			Type:     "completion",
			Priority: PriorityMedium,
			Message:  "Keep a consistent study schedule to raise your completion rate.",
		})
	}

	switch {
	case m.AverageSessionDurationMinutes < ShortSessionMinutes:
		recs = append(recs, Recommendation{
			Type:     "duration",
			Priority: PriorityHigh,
			Message:  "Your study sessions are short. Extend them gradually for better retention.",
		})
	case m.AverageSessionDurationMinutes > LongSessionMinutes:
		recs = append(recs, Recommendation{
			Type:     "duration",
			Priority: PriorityMedium,
			Message:  "Your sessions are long. Take regular breaks, for example with the Pomodoro technique.",
		})
	}

	switch p.Progress {
	case LevelSlow:
		recs = append(recs, Recommendation{
			Type:     "velocity",
			Priority: PriorityHigh,
			Message:  "Your learning pace is slow. Try active recall and spaced repetition.",
		})
	case LevelFast:
		recs = append(recs, Recommendation{
			Type:     "velocity",
			Priority: PriorityMedium,
			Message:  "Great pace. Review earlier material periodically so it sticks.",
		})
	}

	if m.TopicDifficulty > HardTopicDifficulty {
		recs = append(recs, Recommendation{
			Type:     "difficulty",
			Priority: PriorityHigh,
			Message:  "You are working on hard topics. Break them down into smaller concepts.",
		})
	}

	if p.Efficiency == LevelLow && p.Progress == LevelSlow {
		recs = append(recs, Recommendation{
			Type:     "strategy",
			Priority: PriorityHigh,
			Message:  "Combine techniques: explain each concept in simple terms (Feynman technique) and test yourself on it the next day.",
		})
	}

	return recs
}
