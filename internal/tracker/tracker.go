// Package tracker records session completion and keeps plan metrics in
// step with it.
package tracker

import (
	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/plan"
)

// Toggle returns a copy of p with the session's completion flag set to
// completed and metrics recomputed. p itself is not modified, so the call
// can be re-applied to a freshly loaded plan after a write conflict.
func Toggle(p *plan.Plan, sessionID string, completed bool) (*plan.Plan, error) {
	i := p.SessionIndex(sessionID)
	if i < 0 {
		return nil, &plan.NotFoundError{Kind: plan.KindSession, ID: sessionID}
	}

	next := p.Clone()
	next.Sessions[i].Completed = completed
	metrics.Recompute(next)
	return next, nil
}
