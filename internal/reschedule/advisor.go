package reschedule

import (
	"fmt"
	"math"
	"time"

	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/plan"
	"github.com/eduwise/studyplan/internal/schedule"
)

// MaxSuggestions caps the number of replacement times offered.
const MaxSuggestions = 3

// DefaultSuccessRate is assumed for slots with no session history.
const DefaultSuccessRate = 0.5

// MinSuccessRate is the rate a slot must exceed to be suggested.
const MinSuccessRate = 0.6

// Suggestion is a proposed new time for a missed session.
type Suggestion struct {
	SessionID   string    `json:"session_id"`
	Time        time.Time `json:"time"`
	Slot        plan.Slot `json:"slot"`
	SuccessRate float64   `json:"success_rate"`
	Reason      string    `json:"reason"`
}

// Suggest proposes up to three replacement times for the session, walking
// forward one day at a time from now until the deadline. Only preferred
// slots whose historical success rate exceeds 0.6 qualify, and restricted
// days are skipped.
func Suggest(p *plan.Plan, sessionID string, now time.Time) ([]Suggestion, error) {
	if p.SessionIndex(sessionID) < 0 {
		return nil, &plan.NotFoundError{Kind: plan.KindSession, ID: sessionID}
	}

	rates := metrics.SlotSuccessRates(p)
	suggestions := make([]Suggestion, 0, MaxSuggestions)

	for day := now; day.Before(p.Deadline) && len(suggestions) < MaxSuggestions; day = day.AddDate(0, 0, 1) {
		if schedule.IsDayRestricted(day, p.Restrictions) {
			continue
		}
		for _, slot := range p.PreferredSlots {
			if len(suggestions) >= MaxSuggestions {
				break
			}
			rate, ok := rates[slot]
			if !ok {
				rate = DefaultSuccessRate
			}
			if rate <= MinSuccessRate {
				continue
			}
			at := slot.On(day)
			// The slot may already have started today or fall past the deadline.
			if at.Before(now) || at.After(p.Deadline) {
				continue
			}
			suggestions = append(suggestions, Suggestion{
				SessionID:   sessionID,
				Time:        at,
				Slot:        slot,
				SuccessRate: rate,
				Reason:      fmt.Sprintf("%d%% completion rate in this time slot", int(math.Round(rate*100))),
			})
		}
	}
	return suggestions, nil
}
