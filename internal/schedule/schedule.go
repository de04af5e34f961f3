package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eduwise/studyplan/internal/plan"
)

// BaseHours is the study time assumed for a goal with no complexity
// keywords.
const BaseHours = 20.0

// ComplexityStep is added to the complexity factor for every keyword hit.
const ComplexityStep = 0.2

// ComplexityKeywords raise the estimated effort of a goal.
var ComplexityKeywords = []string{"advanced", "complex", "comprehensive", "deep", "thorough"}

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// ComplexityFactor returns 1 + 0.2 per whole-word, case-insensitive
// occurrence of a complexity keyword in goal.
func ComplexityFactor(goal string) float64 {
	matches := 0
	for _, w := range wordRe.FindAllString(strings.ToLower(goal), -1) {
		for _, k := range ComplexityKeywords {
			if w == k {
				matches++
				break
			}
		}
	}
	return 1 + float64(matches)*ComplexityStep
}

// DaysUntil returns the number of started days between now and deadline.
func DaysUntil(now, deadline time.Time) int {
	days := math.Ceil(deadline.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// SessionsPerDay spreads the estimated hours for goal over days.
func SessionsPerDay(goal string, days int) int {
	if days <= 0 {
		return 0
	}
	total := BaseHours * ComplexityFactor(goal)
	n := int(math.Ceil(roundTo(total/float64(days), 9)))
	if n < 0 {
		return 0
	}
	return n
}

// roundTo trims float noise (24.000000000000004) before ceil is applied.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// IsDayRestricted reports whether the weekday name of day occurs, case
// insensitively, in any restriction string. Restrictions remove whole days.
func IsDayRestricted(day time.Time, restrictions []string) bool {
	name := strings.ToLower(day.Weekday().String())
	for _, r := range restrictions {
		if strings.Contains(strings.ToLower(r), name) {
			return true
		}
	}
	return false
}

// Generate expands constraints into a chronological session list. A nil
// error with an empty, non-nil slice means every day was restricted.
func Generate(c plan.Constraints, now time.Time) ([]plan.Session, error) {
	if len(c.PreferredSlots) == 0 {
		return nil, plan.NewValidationError("at least one preferred time slot is required",
			plan.FieldError{Field: "preferred_slots", Message: "must not be empty"})
	}
	if err := c.Validate(now); err != nil {
		return nil, err
	}

	days := DaysUntil(now, c.Deadline)
	perDay := SessionsPerDay(c.Goal, days)

	sessions := make([]plan.Session, 0, days*perDay)
	for day := 0; day < days; day++ {
		date := now.AddDate(0, 0, day)
		if IsDayRestricted(date, c.Restrictions) {
			continue
		}
		topic := fmt.Sprintf("%s (day %d)", strings.TrimSpace(c.Subject), day+1)
		for i := 0; i < perDay; i++ {
			slot := c.PreferredSlots[i%len(c.PreferredSlots)]
			sessions = append(sessions, plan.Session{
				ID:              uuid.NewString(),
				Time:            slot.On(date),
				Slot:            slot,
				DurationMinutes: plan.DefaultSessionMinutes,
				Topic:           topic,
				Difficulty:      c.Difficulty,
			})
		}
	}

	plan.SortSessions(sessions)
	return sessions, nil
}

// NewPlan generates sessions for c and wraps them in a plan owned by owner.
// Metrics are left zero; callers recompute them.
func NewPlan(owner string, c plan.Constraints, now time.Time) (*plan.Plan, error) {
	sessions, err := Generate(c, now)
	if err != nil {
		return nil, err
	}
	restrictions := c.Restrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	return &plan.Plan{
		ID:                   uuid.NewString(),
		OwnerID:              owner,
		Subject:              strings.TrimSpace(c.Subject),
		Goal:                 c.Goal,
		Deadline:             c.Deadline,
		PreferredSlots:       append([]plan.Slot(nil), c.PreferredSlots...),
		Restrictions:         append([]string{}, restrictions...),
		LearningStyle:        c.LearningStyle,
		DifficultyPreference: c.DifficultyPreference,
		Status:               plan.StatusActive,
		Sessions:             sessions,
		History:              []plan.Modification{},
		GeneratedAt:          now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}
