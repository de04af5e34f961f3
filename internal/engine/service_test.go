package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/plan"
	"github.com/eduwise/studyplan/internal/store"
)

// monday 2026-03-02 09:30 UTC
var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// memRepo is an in-memory Repository with version checks. conflicts makes
// the next N saves fail as if another writer got there first.
type memRepo struct {
	mu        sync.Mutex
	plans     map[string]*plan.Plan
	conflicts int
	saves     int
}

func newMemRepo() *memRepo {
	return &memRepo{plans: map[string]*plan.Plan{}}
}

func (r *memRepo) LoadPlan(_ context.Context, id, owner string) (*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.OwnerID != owner {
		return nil, &plan.NotFoundError{Kind: plan.KindPlan, ID: id}
	}
	return p.Clone(), nil
}

func (r *memRepo) SavePlan(_ context.Context, p *plan.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if cur, ok := r.plans[p.ID]; ok {
		if r.conflicts > 0 {
			r.conflicts--
			cur.Version++
		}
		if cur.Version != p.Version {
			return &plan.ConflictError{PlanID: p.ID, Version: cur.Version}
		}
	}
	p.Version++
	r.plans[p.ID] = p.Clone()
	return nil
}

func (r *memRepo) ListPlans(_ context.Context, owner string) ([]*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*plan.Plan
	for _, p := range r.plans {
		if p.OwnerID == owner {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memRepo) DeletePlan(_ context.Context, id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.plans[id]; !ok || p.OwnerID != owner {
		return &plan.NotFoundError{Kind: plan.KindPlan, ID: id}
	}
	delete(r.plans, id)
	return nil
}

func weekConstraints() plan.Constraints {
	return plan.Constraints{
		Subject:        "Chemistry",
		Goal:           "organic reactions",
		Deadline:       testNow.AddDate(0, 0, 7),
		PreferredSlots: []plan.Slot{plan.SlotMorning, plan.SlotEvening},
		Restrictions:   []string{},
	}
}

func TestGeneratePlan_EndToEnd(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))

	p, err := svc.GeneratePlan(context.Background(), "learner-1", plan.Constraints{
		Subject:        "Math",
		Goal:           "comprehensive algebra review",
		Deadline:       testNow.AddDate(0, 0, 5),
		PreferredSlots: []plan.Slot{plan.SlotMorning},
	})
	require.NoError(t, err)

	assert.True(t, p.IsGenerated())
	assert.Equal(t, int64(1), p.Version)
	require.Len(t, p.Sessions, 25)
	for _, s := range p.Sessions {
		assert.Equal(t, plan.SlotMorning, s.Slot)
	}
	assert.Equal(t, 0.0, p.Metrics.SessionCompletionRate)
}

func TestGeneratePlan_ValidationNotStored(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, WithClock(clock))

	c := weekConstraints()
	c.PreferredSlots = nil
	_, err := svc.GeneratePlan(context.Background(), "learner-1", c)
	assert.True(t, plan.IsValidation(err))
	assert.Zero(t, repo.saves)
}

func TestToggleSession_Reversible(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)
	require.Len(t, p.Sessions, 21)
	id := p.Sessions[4].ID

	done, err := svc.ToggleSession(ctx, "learner-1", p.ID, id, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/21, done.Metrics.SessionCompletionRate, 1e-12)
	assert.Equal(t, float64(plan.DefaultSessionMinutes), done.Metrics.AverageSessionDurationMinutes)

	undone, err := svc.ToggleSession(ctx, "learner-1", p.ID, id, false)
	require.NoError(t, err)
	assert.Equal(t, p.Sessions, undone.Sessions)
	assert.Equal(t, p.Metrics, undone.Metrics)
	assert.Equal(t, int64(3), undone.Version)
}

func TestToggleSession_UnknownSession(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)

	_, err = svc.ToggleSession(ctx, "learner-1", p.ID, "missing", true)
	assert.True(t, plan.IsNotFound(err))

	_, err = svc.ToggleSession(ctx, "learner-2", p.ID, p.Sessions[0].ID, true)
	assert.True(t, plan.IsNotFound(err), "other owners must not see the plan")
}

func TestMutate_RetriesConflicts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)

	repo.conflicts = 2
	repo.saves = 0
	got, err := svc.ToggleSession(ctx, "learner-1", p.ID, p.Sessions[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.saves)
	assert.True(t, got.Sessions[0].Completed)
}

func TestMutate_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)

	repo.conflicts = MaxAttempts
	_, err = svc.ToggleSession(ctx, "learner-1", p.ID, p.Sessions[0].ID, true)
	require.Error(t, err)
	assert.True(t, plan.IsRetryable(err))
}

func TestRescheduleSession(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)
	id := p.Sessions[0].ID
	_, err = svc.ToggleSession(ctx, "learner-1", p.ID, id, true)
	require.NoError(t, err)

	newTime := plan.SlotEvening.On(testNow.AddDate(0, 0, 3))
	got, err := svc.RescheduleSession(ctx, "learner-1", p.ID, id, newTime, "")
	require.NoError(t, err)

	s, err := got.Session(id)
	require.NoError(t, err)
	assert.False(t, s.Completed)
	assert.True(t, s.Time.Equal(newTime))
	require.Len(t, got.History, 1)
	assert.Equal(t, id, got.History[0].SessionID)
	assert.Equal(t, testNow, got.History[0].Timestamp)
}

func TestSuggestReschedule(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	c := weekConstraints()
	c.Restrictions = []string{"no study on wednesday"}
	p, err := svc.GeneratePlan(ctx, "learner-1", c)
	require.NoError(t, err)
	for _, s := range p.Sessions {
		if s.Slot == plan.SlotEvening {
			_, err := svc.ToggleSession(ctx, "learner-1", p.ID, s.ID, true)
			require.NoError(t, err)
		}
	}

	got, err := svc.SuggestReschedule(ctx, "learner-1", p.ID, p.Sessions[0].ID, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 3)
	for _, sg := range got {
		assert.Equal(t, plan.SlotEvening, sg.Slot)
		assert.NotEqual(t, time.Wednesday, sg.Time.Weekday())
	}
}

func TestGetTrends(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	_, err := svc.GetTrends(ctx, "learner-1", metrics.Period("yearly"))
	assert.True(t, plan.IsValidation(err))

	ts, err := svc.GetTrends(ctx, "learner-1", metrics.PeriodWeekly)
	require.NoError(t, err)
	assert.Len(t, ts.Points, 7)
}

func TestGetTrends_SQLiteLocalZone(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("EST", -5*3600)
	t.Cleanup(func() { time.Local = prev })

	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)
	svc := NewService(s.Plans(), nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)

	// Today's evening session, completed before it starts.
	var evening plan.Session
	for _, sess := range p.Sessions {
		if sess.Slot == plan.SlotEvening && sess.Time.After(now) {
			evening = sess
			break
		}
	}
	require.NotEmpty(t, evening.ID)
	require.Equal(t, 18, evening.Time.Hour())
	_, err = svc.ToggleSession(ctx, "learner-1", p.ID, evening.ID, true)
	require.NoError(t, err)

	daily, err := svc.GetTrends(ctx, "learner-1", metrics.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, daily.Points[18].Completed)
	assert.Equal(t, 0, daily.Points[23].Completed)

	weekly, err := svc.GetTrends(ctx, "learner-1", metrics.PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, 1, weekly.Points[evening.Time.Day()%7].Completed)
}

func TestExportRows_ActiveAndRange(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	active, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)
	archived, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, "learner-1", archived.ID, plan.StatusArchived)
	require.NoError(t, err)

	rows, err := svc.ExportRows(ctx, "learner-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, active.ID, rows[0].PlanID)

	rows, err = svc.ExportRows(ctx, "learner-1", testNow, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.ExportRows(ctx, "learner-1", testNow.AddDate(0, 0, 30), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOwnerMetricsAndExport(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)
	_, err = svc.ToggleSession(ctx, "learner-1", p.ID, p.Sessions[0].ID, true)
	require.NoError(t, err)

	m, err := svc.OwnerMetrics(ctx, "learner-1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/21, m.SessionCompletionRate, 1e-12)

	rows, err := svc.ExportRows(ctx, "learner-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-02", rows[0].Date)
	assert.Equal(t, "Chemistry", rows[0].Subject)
	assert.NotEmpty(t, rows[0].Recommendations)
	assert.GreaterOrEqual(t, rows[0].PredictedPerformance, 0.0)
	assert.LessOrEqual(t, rows[0].PredictedPerformance, 1.0)
}

func TestSetStatusAndDelete(t *testing.T) {
	svc := NewService(newMemRepo(), nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, "learner-1", p.ID, plan.Status("paused"))
	assert.True(t, plan.IsValidation(err))

	got, err := svc.SetStatus(ctx, "learner-1", p.ID, plan.StatusArchived)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusArchived, got.Status)

	m, err := svc.OwnerMetrics(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, plan.Metrics{}, m, "archived plans are not aggregated")

	require.NoError(t, svc.DeletePlan(ctx, "learner-1", p.ID))
	assert.True(t, plan.IsNotFound(svc.DeletePlan(ctx, "learner-1", p.ID)))
}

func TestScorePerformance_Bounds(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	for _, m := range []plan.Metrics{
		{},
		{SessionCompletionRate: 1, AverageSessionDurationMinutes: 120, TopicDifficulty: 10, LearningVelocity: 2},
	} {
		a := svc.ScorePerformance(ctx, m)
		assert.GreaterOrEqual(t, a.Score, 0.0)
		assert.LessOrEqual(t, a.Score, 1.0)
		assert.Equal(t, "weighted", a.Source)
	}
}

func TestService_WithSQLiteStore(t *testing.T) {
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := NewService(s.Plans(), nil, WithClock(clock))
	ctx := context.Background()

	p, err := svc.GeneratePlan(ctx, "learner-1", weekConstraints())
	require.NoError(t, err)

	_, err = svc.ToggleSession(ctx, "learner-1", p.ID, p.Sessions[1].ID, true)
	require.NoError(t, err)
	moved := plan.SlotMorning.On(testNow.AddDate(0, 0, 4))
	_, err = svc.RescheduleSession(ctx, "learner-1", p.ID, p.Sessions[1].ID, moved, "sick day")
	require.NoError(t, err)

	got, err := svc.GetPlan(ctx, "learner-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	require.Len(t, got.History, 1)
	assert.Equal(t, "sick day", got.History[0].Reason)
	assert.Zero(t, got.CompletedCount())
	assert.Len(t, got.Sessions, 21)
}
