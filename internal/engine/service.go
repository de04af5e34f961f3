// Package engine wires the scheduling, tracking, metrics, scoring and
// rescheduling components to a plan repository.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/eduwise/studyplan/internal/logger"
	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/performance"
	"github.com/eduwise/studyplan/internal/plan"
	"github.com/eduwise/studyplan/internal/reschedule"
	"github.com/eduwise/studyplan/internal/schedule"
	"github.com/eduwise/studyplan/internal/tracker"
)

// MaxAttempts bounds how often a mutation is re-applied after a version
// conflict.
const MaxAttempts = 3

// Repository persists plans. SavePlan must reject stale versions with
// *plan.ConflictError and update p.Version on success.
type Repository interface {
	LoadPlan(ctx context.Context, id, owner string) (*plan.Plan, error)
	SavePlan(ctx context.Context, p *plan.Plan) error
	ListPlans(ctx context.Context, owner string) ([]*plan.Plan, error)
	DeletePlan(ctx context.Context, id, owner string) error
}

// Service exposes the study-plan operations on top of a Repository.
type Service struct {
	repo     Repository
	analyzer *performance.Analyzer
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service. A nil analyzer scores with the weighted
// scorer only.
func NewService(repo Repository, analyzer *performance.Analyzer, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		analyzer: analyzer,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = performance.NewAnalyzer(nil, 0, s.log)
	}
	s.log = s.log.With("component", "engine")
	return s
}

// GeneratePlan schedules sessions for c and stores the new plan.
func (s *Service) GeneratePlan(ctx context.Context, owner string, c plan.Constraints) (*plan.Plan, error) {
	p, err := schedule.NewPlan(owner, c, s.now())
	if err != nil {
		return nil, err
	}
	metrics.Recompute(p)
	if err := s.repo.SavePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.log.Info("plan generated", "owner", owner, "plan", p.ID, "sessions", len(p.Sessions))
	return p, nil
}

// GetPlan loads one plan.
func (s *Service) GetPlan(ctx context.Context, owner, planID string) (*plan.Plan, error) {
	return s.repo.LoadPlan(ctx, planID, owner)
}

// ListPlans returns every plan of owner.
func (s *Service) ListPlans(ctx context.Context, owner string) ([]*plan.Plan, error) {
	return s.repo.ListPlans(ctx, owner)
}

// DeletePlan removes a plan with its sessions and history.
func (s *Service) DeletePlan(ctx context.Context, owner, planID string) error {
	if err := s.repo.DeletePlan(ctx, planID, owner); err != nil {
		return err
	}
	s.log.Info("plan deleted", "owner", owner, "plan", planID)
	return nil
}

// ToggleSession marks a session completed or not completed.
func (s *Service) ToggleSession(ctx context.Context, owner, planID, sessionID string, completed bool) (*plan.Plan, error) {
	return s.mutate(ctx, owner, planID, func(p *plan.Plan) (*plan.Plan, error) {
		return tracker.Toggle(p, sessionID, completed)
	})
}

// SetStatus changes the lifecycle status of a plan.
func (s *Service) SetStatus(ctx context.Context, owner, planID string, status plan.Status) (*plan.Plan, error) {
	switch status {
	case plan.StatusActive, plan.StatusCompleted, plan.StatusArchived:
	default:
		return nil, plan.NewValidationError("invalid plan status",
			plan.FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)})
	}
	return s.mutate(ctx, owner, planID, func(p *plan.Plan) (*plan.Plan, error) {
		next := p.Clone()
		next.Status = status
		return next, nil
	})
}

// ComputeMetrics derives the metrics of p without storing them.
func (s *Service) ComputeMetrics(p *plan.Plan) plan.Metrics {
	return metrics.Compute(p.Sessions)
}

// OwnerMetrics aggregates the metrics of all active plans of owner.
func (s *Service) OwnerMetrics(ctx context.Context, owner string) (plan.Metrics, error) {
	plans, err := s.repo.ListPlans(ctx, owner)
	if err != nil {
		return plan.Metrics{}, err
	}
	return metrics.Aggregate(plans), nil
}

// GetTrends buckets the completed sessions of owner's plans by period.
func (s *Service) GetTrends(ctx context.Context, owner string, period metrics.Period) (metrics.TimeSeries, error) {
	if _, err := metrics.ParsePeriod(string(period)); err != nil {
		return metrics.TimeSeries{}, err
	}
	plans, err := s.repo.ListPlans(ctx, owner)
	if err != nil {
		return metrics.TimeSeries{}, err
	}
	return metrics.Trends(plans, period), nil
}

// ScorePerformance scores m. It never fails.
func (s *Service) ScorePerformance(ctx context.Context, m plan.Metrics) performance.Analysis {
	return s.analyzer.Analyze(ctx, m)
}

// SuggestReschedule proposes up to three new times for a session.
func (s *Service) SuggestReschedule(ctx context.Context, owner, planID, sessionID string, now time.Time) ([]reschedule.Suggestion, error) {
	p, err := s.repo.LoadPlan(ctx, planID, owner)
	if err != nil {
		return nil, err
	}
	return reschedule.Suggest(p, sessionID, now)
}

// RescheduleSession moves a session to newTime and records the change.
func (s *Service) RescheduleSession(ctx context.Context, owner, planID, sessionID string, newTime time.Time, reason string) (*plan.Plan, error) {
	return s.mutate(ctx, owner, planID, func(p *plan.Plan) (*plan.Plan, error) {
		return reschedule.Apply(p, sessionID, newTime, reason, s.now())
	})
}

// ExportRows analyzes the active plans of owner into export rows. Only
// plans with a session in [from, to] are kept; a zero bound is open.
func (s *Service) ExportRows(ctx context.Context, owner string, from, to time.Time) ([]metrics.Row, error) {
	plans, err := s.repo.ListPlans(ctx, owner)
	if err != nil {
		return nil, err
	}
	plans = metrics.InRange(plans, from, to)
	rows := make([]metrics.Row, 0, len(plans))
	for _, p := range plans {
		if p.Status != "" && p.Status != plan.StatusActive {
			continue
		}
		a := s.analyzer.Analyze(ctx, p.Metrics)
		msgs := make([]string, 0, len(a.Recommendations))
		for _, r := range a.Recommendations {
			msgs = append(msgs, r.Message)
		}
		date := p.CreatedAt
		if len(p.Sessions) > 0 {
			date = p.Sessions[0].Time
		}
		rows = append(rows, metrics.Row{
			Date:                 date.Format(time.DateOnly),
			PlanID:               p.ID,
			Subject:              p.Subject,
			Metrics:              p.Metrics,
			PredictedPerformance: a.Score,
			Recommendations:      msgs,
		})
	}
	return rows, nil
}

// mutate loads the plan, applies fn and saves the result. On a version
// conflict the plan is reloaded and fn applied again.
func (s *Service) mutate(ctx context.Context, owner, planID string, fn func(*plan.Plan) (*plan.Plan, error)) (*plan.Plan, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		p, err := s.repo.LoadPlan(ctx, planID, owner)
		if err != nil {
			return nil, err
		}
		next, err := fn(p)
		if err != nil {
			return nil, err
		}
		next.UpdatedAt = s.now()

		err = s.repo.SavePlan(ctx, next)
		if err == nil {
			return next, nil
		}
		if !plan.IsRetryable(err) {
			return nil, fmt.Errorf("save plan: %w", err)
		}
		lastErr = err
		s.log.Warn("plan version conflict", "owner", owner, "plan", planID, "attempt", attempt)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("save plan after %d attempts: %w", MaxAttempts, lastErr)
}
