package metrics

import (
	"github.com/eduwise/studyplan/internal/plan"
)

// Compute derives the four plan metrics from a session list. Every ratio
// with a zero denominator is reported as 0.
func Compute(sessions []plan.Session) plan.Metrics {
	var (
		completed     int
		minutes       int
		difficultySum float64
		topics        = make(map[string]struct{})
	)
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		completed++
		minutes += s.DurationMinutes
		difficultySum += s.Difficulty
		topics[s.Topic] = struct{}{}
	}

	var m plan.Metrics
	if len(sessions) > 0 {
		m.SessionCompletionRate = float64(completed) / float64(len(sessions))
	}
	if completed > 0 {
		m.AverageSessionDurationMinutes = float64(minutes) / float64(completed)
		m.TopicDifficulty = difficultySum / float64(completed)
	}
	m.LearningVelocity = velocity(len(topics), minutes)
	return m
}

// velocity is distinct topics per hour of study.
func velocity(topics, minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	return float64(topics) / (float64(minutes) / 60)
}

// Recompute refreshes p.Metrics from p.Sessions in place.
func Recompute(p *plan.Plan) {
	p.Metrics = Compute(p.Sessions)
}

// Aggregate computes metrics over the sessions of every active plan.
func Aggregate(plans []*plan.Plan) plan.Metrics {
	var all []plan.Session
	for _, p := range plans {
		if p.Status != "" && p.Status != plan.StatusActive {
			continue
		}
		all = append(all, p.Sessions...)
	}
	return Compute(all)
}

// SlotSuccessRates returns completed/total per slot over the plan's
// sessions. Slots without sessions are absent from the map.
func SlotSuccessRates(p *plan.Plan) map[plan.Slot]float64 {
	type tally struct{ total, completed int }
	counts := make(map[plan.Slot]*tally)
	for _, s := range p.Sessions {
		t := counts[s.Slot]
		if t == nil {
			t = &tally{}
			counts[s.Slot] = t
		}
		t.total++
		if s.Completed {
			t.completed++
		}
	}
	rates := make(map[plan.Slot]float64, len(counts))
	for slot, t := range counts {
		rates[slot] = float64(t.completed) / float64(t.total)
	}
	return rates
}
