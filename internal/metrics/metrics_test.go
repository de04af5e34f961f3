package metrics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduwise/studyplan/internal/plan"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func session(topic string, at time.Time, minutes int, difficulty float64, completed bool) plan.Session {
	return plan.Session{
		ID:              topic + at.Format(time.RFC3339),
		Time:            at,
		Slot:            plan.SlotForHour(at.Hour()),
		DurationMinutes: minutes,
		Topic:           topic,
		Difficulty:      difficulty,
		Completed:       completed,
	}
}

func TestCompute(t *testing.T) {
	sessions := []plan.Session{
		session("a", day.Add(8*time.Hour), 45, 4, true),
		session("a", day.Add(18*time.Hour), 45, 6, true),
		session("b", day.Add(32*time.Hour), 30, 8, true),
		session("c", day.Add(42*time.Hour), 60, 2, false),
	}

	m := Compute(sessions)
	assert.InDelta(t, 0.75, m.SessionCompletionRate, 1e-9)
	assert.InDelta(t, 40, m.AverageSessionDurationMinutes, 1e-9)
	assert.InDelta(t, 6, m.TopicDifficulty, 1e-9)
	// Two distinct topics over two hours.
	assert.InDelta(t, 1, m.LearningVelocity, 1e-9)
}

func TestCompute_ZeroDenominators(t *testing.T) {
	assert.Equal(t, plan.Metrics{}, Compute(nil))

	m := Compute([]plan.Session{session("a", day, 45, 5, false)})
	assert.Zero(t, m.SessionCompletionRate)
	assert.Zero(t, m.AverageSessionDurationMinutes)
	assert.Zero(t, m.TopicDifficulty)
	assert.Zero(t, m.LearningVelocity)

	m = Compute([]plan.Session{session("a", day, 0, 5, true)})
	assert.Equal(t, 1.0, m.SessionCompletionRate)
	assert.Zero(t, m.LearningVelocity)
}

func TestAggregate_ActivePlansOnly(t *testing.T) {
	active := &plan.Plan{Status: plan.StatusActive, Sessions: []plan.Session{
		session("a", day, 45, 5, true),
		session("b", day, 45, 5, false),
	}}
	archived := &plan.Plan{Status: plan.StatusArchived, Sessions: []plan.Session{
		session("c", day, 45, 5, true),
	}}

	m := Aggregate([]*plan.Plan{active, archived})
	assert.InDelta(t, 0.5, m.SessionCompletionRate, 1e-9)
	assert.Equal(t, plan.Metrics{}, Aggregate(nil))
}

func TestSlotSuccessRates(t *testing.T) {
	p := &plan.Plan{Sessions: []plan.Session{
		session("a", day.Add(8*time.Hour), 45, 5, true),
		session("b", day.Add(9*time.Hour), 45, 5, false),
		session("c", day.Add(18*time.Hour), 45, 5, true),
	}}

	rates := SlotSuccessRates(p)
	assert.Equal(t, map[plan.Slot]float64{
		plan.SlotMorning: 0.5,
		plan.SlotEvening: 1,
	}, rates)
}

func TestParsePeriod(t *testing.T) {
	for _, in := range []string{"daily", " Weekly ", "MONTHLY"} {
		_, err := ParsePeriod(in)
		assert.NoError(t, err, in)
	}
	_, err := ParsePeriod("yearly")
	assert.True(t, plan.IsValidation(err))

	assert.Equal(t, 24, PeriodDaily.Buckets())
	assert.Equal(t, 7, PeriodWeekly.Buckets())
	assert.Equal(t, 30, PeriodMonthly.Buckets())
}

func TestTrends_Buckets(t *testing.T) {
	p1 := &plan.Plan{Sessions: []plan.Session{
		session("a", day.Add(8*time.Hour), 45, 4, true),
		session("b", day.Add(8*time.Hour+10*time.Minute), 30, 6, true),
		session("c", day.Add(18*time.Hour), 45, 5, false),
	}}
	p2 := &plan.Plan{Sessions: []plan.Session{
		session("d", day.AddDate(0, 0, 1).Add(8*time.Hour), 60, 2, true),
	}}

	daily := Trends([]*plan.Plan{p1, p2}, PeriodDaily)
	require.Len(t, daily.Points, 24)
	pt := daily.Points[8]
	assert.Equal(t, 8, pt.TimeUnit)
	assert.Equal(t, 3, pt.Completed)
	assert.Equal(t, 135, pt.TotalDurationMinutes)
	assert.InDelta(t, 12, pt.TotalDifficulty, 1e-9)
	assert.InDelta(t, Compute(p2.Sessions).LearningVelocity, pt.LearningVelocity, 1e-9, "last contributing plan wins")
	assert.Zero(t, daily.Points[18].Completed)

	// 2 March and 3 March land in buckets 2 and 3 of a week.
	weekly := Trends([]*plan.Plan{p1, p2}, PeriodWeekly)
	require.Len(t, weekly.Points, 7)
	assert.Equal(t, 2, weekly.Points[2].Completed)
	assert.Equal(t, 1, weekly.Points[3].Completed)

	monthly := Trends(nil, PeriodMonthly)
	require.Len(t, monthly.Points, 30)
	for i, pt := range monthly.Points {
		assert.Equal(t, TrendPoint{TimeUnit: i}, pt)
	}
}

func TestTrends_IncludesSessionsCompletedAhead(t *testing.T) {
	// Completed before its slot: still counted, whatever the clock says.
	p := &plan.Plan{Sessions: []plan.Session{
		session("ahead", day.AddDate(0, 0, 20).Add(18*time.Hour), 45, 4, true),
	}}

	ts := Trends([]*plan.Plan{p}, PeriodDaily)
	assert.Equal(t, 1, ts.Points[18].Completed)
}

func TestInRange(t *testing.T) {
	early := &plan.Plan{ID: "early", Sessions: []plan.Session{
		session("a", day.Add(8*time.Hour), 45, 4, false),
	}}
	late := &plan.Plan{ID: "late", Sessions: []plan.Session{
		session("b", day.AddDate(0, 0, 10).Add(8*time.Hour), 45, 4, false),
		session("c", day.AddDate(0, 0, 12).Add(8*time.Hour), 45, 4, false),
	}}
	empty := &plan.Plan{ID: "empty"}
	plans := []*plan.Plan{early, late, empty}

	assert.Equal(t, plans, InRange(plans, time.Time{}, time.Time{}))

	ids := func(ps []*plan.Plan) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}
	assert.Equal(t, []string{"late"}, ids(InRange(plans, day.AddDate(0, 0, 11), time.Time{})))
	assert.Equal(t, []string{"early"}, ids(InRange(plans, time.Time{}, day.AddDate(0, 0, 1))))
	assert.Equal(t, []string{"early", "late"}, ids(InRange(plans, day, day.AddDate(0, 0, 10).Add(8*time.Hour))))
	assert.Empty(t, InRange(plans, day.AddDate(0, 0, 2), day.AddDate(0, 0, 9)))
}

func exportRows() []Row {
	return []Row{{
		Date:    "2026-03-02",
		PlanID:  "p1",
		Subject: "Chemistry, organic",
		Metrics: plan.Metrics{
			SessionCompletionRate:         0.5,
			AverageSessionDurationMinutes: 45,
			TopicDifficulty:               5,
			LearningVelocity:              1.3333333,
		},
		PredictedPerformance: 0.61,
		Recommendations:      []string{"Keep going", "Review weekly"},
	}}
}

func TestExport_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exportRows(), "CSV"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"2026-03-02", "p1", "Chemistry, organic",
		"0.5000", "45.0000", "5.0000", "1.3333", "0.6100",
		"Keep going | Review weekly",
	}, records[1])
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil, FormatJSON))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	require.NoError(t, Export(&buf, exportRows(), ""))
	var got []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, exportRows(), got)
}

func TestExport_UnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, exportRows(), "xml")
	assert.True(t, plan.IsValidation(err))
}
