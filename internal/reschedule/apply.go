package reschedule

import (
	"time"

	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/plan"
)

// DefaultReason is recorded when a reschedule carries no reason.
const DefaultReason = "missed session"

// Apply moves a session to newTime and returns the updated copy of p. The
// session is reset to not completed, one modification entry is appended,
// sessions are re-sorted and metrics recomputed. The slot is derived from
// the hour of newTime and must be one of the plan's preferred slots.
func Apply(p *plan.Plan, sessionID string, newTime time.Time, reason string, now time.Time) (*plan.Plan, error) {
	i := p.SessionIndex(sessionID)
	if i < 0 {
		return nil, &plan.NotFoundError{Kind: plan.KindSession, ID: sessionID}
	}

	slot := plan.SlotForHour(newTime.Hour())
	if !p.HasSlot(slot) {
		return nil, plan.NewValidationError("new time is outside the preferred time slots",
			plan.FieldError{Field: "new_time", Message: string(slot) + " is not a preferred slot"})
	}
	if newTime.After(p.Deadline) {
		return nil, plan.NewValidationError("new time is after the plan deadline",
			plan.FieldError{Field: "new_time", Message: "must not be after " + p.Deadline.Format(time.RFC3339)})
	}
	if reason == "" {
		reason = DefaultReason
	}

	next := p.Clone()
	s := &next.Sessions[i]
	original := s.Time
	s.Time = newTime
	s.Slot = slot
	s.Completed = false

	next.History = append(next.History, plan.Modification{
		SessionID:    sessionID,
		OriginalTime: original,
		NewTime:      newTime,
		Reason:       reason,
		Timestamp:    now,
	})

	plan.SortSessions(next.Sessions)
	metrics.Recompute(next)
	return next, nil
}
