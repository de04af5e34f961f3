package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduwise/studyplan/internal/plan"
)

// Period selects the bucketing of a trend series.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Periods lists the supported trend periods.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}

// ParsePeriod resolves a period name case-insensitively.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", plan.NewValidationError(fmt.Sprintf("unknown trend period %q", s),
		plan.FieldError{Field: "period", Message: "must be one of daily, weekly, monthly"})
}

// Buckets returns the number of buckets in a series of this period.
func (p Period) Buckets() int {
	switch p {
	case PeriodDaily:
		return 24
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	}
	return 0
}

// bucket returns the bucket index for a session start time.
func (p Period) bucket(t time.Time) int {
	if p == PeriodDaily {
		return t.Hour()
	}
	return t.Day() % p.Buckets()
}

// TrendPoint accumulates completed sessions that fall into one bucket.
type TrendPoint struct {
	TimeUnit             int     `json:"time_unit"`
	Completed            int     `json:"completed"`
	TotalDurationMinutes int     `json:"total_duration_minutes"`
	TotalDifficulty      float64 `json:"total_difficulty"`
	LearningVelocity     float64 `json:"learning_velocity"`
}

// TimeSeries is a fixed-length, bucket-indexed trend.
type TimeSeries struct {
	Period Period       `json:"period"`
	Points []TrendPoint `json:"points"`
}

// Trends buckets the completed sessions of plans by period. A bucket's
// learning velocity is that of the last plan contributing to it.
func Trends(plans []*plan.Plan, period Period) TimeSeries {
	n := period.Buckets()
	ts := TimeSeries{Period: period, Points: make([]TrendPoint, n)}
	for i := range ts.Points {
		ts.Points[i].TimeUnit = i
	}
	if n == 0 {
		return ts
	}

	for _, p := range plans {
		planVelocity := Compute(p.Sessions).LearningVelocity
		for _, s := range p.Sessions {
			if !s.Completed {
				continue
			}
			pt := &ts.Points[period.bucket(s.Time)]
			pt.Completed++
			pt.TotalDurationMinutes += s.DurationMinutes
			pt.TotalDifficulty += s.Difficulty
			pt.LearningVelocity = planVelocity
		}
	}
	return ts
}

// InRange keeps the plans with at least one session inside [from, to]. A
// zero bound is open.
func InRange(plans []*plan.Plan, from, to time.Time) []*plan.Plan {
	if from.IsZero() && to.IsZero() {
		return plans
	}
	var out []*plan.Plan
	for _, p := range plans {
		for _, s := range p.Sessions {
			if (from.IsZero() || !s.Time.Before(from)) && (to.IsZero() || !s.Time.After(to)) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
