package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func validConstraints() Constraints {
	return Constraints{
		Subject:        "Physics",
		Goal:           "kinematics",
		Deadline:       now.AddDate(0, 0, 7),
		PreferredSlots: []Slot{SlotMorning, SlotEvening},
	}
}

func TestConstraintsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Constraints)
		field  string
	}{
		{"valid", func(*Constraints) {}, ""},
		{"blank subject", func(c *Constraints) { c.Subject = "   " }, "subject"},
		{"blank goal", func(c *Constraints) { c.Goal = "" }, ""},
		{"no slots", func(c *Constraints) { c.PreferredSlots = nil }, "preferred_slots"},
		{"duplicate slots", func(c *Constraints) { c.PreferredSlots = []Slot{SlotNight, SlotNight} }, "preferred_slots"},
		{"unknown slot", func(c *Constraints) { c.PreferredSlots = []Slot{"Brunch"} }, "preferred_slots[0]"},
		{"blank restriction", func(c *Constraints) { c.Restrictions = []string{"monday", " "} }, ""},
		{"learning style", func(c *Constraints) { c.LearningStyle = "osmosis" }, "learning_style"},
		{"difficulty preference", func(c *Constraints) { c.DifficultyPreference = "brutal" }, "difficulty_preference"},
		{"difficulty range", func(c *Constraints) { c.Difficulty = 11 }, "difficulty"},
		{"no deadline", func(c *Constraints) { c.Deadline = time.Time{} }, "deadline"},
		{"past deadline", func(c *Constraints) { c.Deadline = now }, "deadline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConstraints()
			tt.mutate(&c)
			err := c.Validate(now)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.NotEmpty(t, ve.Fields)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
			assert.NotEmpty(t, ve.Fields[0].Message)
		})
	}
}

func TestConstraintsValidate_BlankMessage(t *testing.T) {
	c := validConstraints()
	c.Subject = ""
	var ve *ValidationError
	require.ErrorAs(t, c.Validate(now), &ve)
	assert.Equal(t, "this field cannot be blank", ve.Fields[0].Message)
	assert.Contains(t, ve.Error(), "subject: this field cannot be blank")
}

func TestSlots(t *testing.T) {
	for _, s := range AllSlots {
		assert.True(t, s.Valid())
		assert.Equal(t, s, SlotForHour(s.StartHour()), "start hour of %s maps back to it", s)
	}
	assert.False(t, Slot("Noon").Valid())

	got, err := ParseSlot(" evening ")
	require.NoError(t, err)
	assert.Equal(t, SlotEvening, got)
	_, err = ParseSlot("dawn")
	assert.Error(t, err)

	day := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC), SlotAfternoon.On(day))

	for hour, want := range map[int]Slot{0: SlotNight, 4: SlotNight, 5: SlotMorning, 11: SlotMorning, 12: SlotAfternoon, 16: SlotAfternoon, 17: SlotEvening, 20: SlotEvening, 21: SlotNight, 23: SlotNight} {
		assert.Equal(t, want, SlotForHour(hour), "hour %d", hour)
	}
}

func TestSortSessions_ByCalendarDate(t *testing.T) {
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	sessions := []Session{
		{ID: "c", Time: SlotMorning.On(d2)},
		{ID: "a1", Time: SlotMorning.On(d1)},
		{ID: "a2", Time: SlotEvening.On(d1)},
		{ID: "a3", Time: SlotMorning.On(d1)},
	}
	SortSessions(sessions)

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "c"}, ids)
}

func TestPlanHelpers(t *testing.T) {
	p := &Plan{
		PreferredSlots: []Slot{SlotMorning},
		Sessions: []Session{
			{ID: "s1", Completed: true, Resources: []Resource{{Title: "notes"}}},
			{ID: "s2"},
		},
	}
	assert.False(t, p.IsGenerated())
	assert.Equal(t, 1, p.CompletedCount())
	assert.Equal(t, 1, p.SessionIndex("s2"))
	assert.Equal(t, -1, p.SessionIndex("zz"))
	assert.True(t, p.HasSlot(SlotMorning))
	assert.False(t, p.HasSlot(SlotNight))

	_, err := p.Session("zz")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindSession, nf.Kind)

	c := p.Clone()
	c.Sessions[0].Completed = false
	c.Sessions[0].Resources[0].Title = "changed"
	c.PreferredSlots[0] = SlotNight
	assert.True(t, p.Sessions[0].Completed)
	assert.Equal(t, "notes", p.Sessions[0].Resources[0].Title)
	assert.Equal(t, SlotMorning, p.PreferredSlots[0])
}

func TestErrorHelpers(t *testing.T) {
	conflict := fmtWrap(&ConflictError{PlanID: "p", Version: 4})
	assert.True(t, IsRetryable(conflict))
	assert.False(t, IsRetryable(&NotFoundError{Kind: KindPlan, ID: "p"}))
	assert.True(t, IsNotFound(fmtWrap(&NotFoundError{Kind: KindPlan, ID: "p"})))
	assert.True(t, IsValidation(NewValidationError("bad")))

	cause := errors.New("boom")
	assert.ErrorIs(t, &ComputationError{Scorer: "model", Err: cause}, cause)
}

func fmtWrap(err error) error {
	return errors.Join(errors.New("context"), err)
}
