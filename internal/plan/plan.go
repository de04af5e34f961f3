package plan

import (
	"slices"
	"sort"
	"time"
)

// DefaultSessionMinutes is the length of every generated session.
const DefaultSessionMinutes = 45

// Status is the lifecycle state of a plan.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Resource is a study resource attached to a session.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type,omitempty"`
}

// Session is one scheduled unit of study work. Sessions are owned by
// exactly one plan.
type Session struct {
	ID              string     `json:"id"`
	Time            time.Time  `json:"time"`
	Slot            Slot       `json:"slot"`
	DurationMinutes int        `json:"duration_minutes"`
	Topic           string     `json:"topic"`
	Difficulty      float64    `json:"difficulty"`
	Completed       bool       `json:"completed"`
	Resources       []Resource `json:"resources,omitempty"`
}

// Metrics are derived from a plan's sessions and never authored directly.
type Metrics struct {
	SessionCompletionRate         float64 `json:"session_completion_rate"`
	AverageSessionDurationMinutes float64 `json:"average_session_duration_minutes"`
	TopicDifficulty               float64 `json:"topic_difficulty"`
	LearningVelocity              float64 `json:"learning_velocity"`
}

// Modification records a single reschedule of a session.
type Modification struct {
	SessionID    string    `json:"session_id"`
	OriginalTime time.Time `json:"original_time"`
	NewTime      time.Time `json:"new_time"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// Plan is a user's study schedule for one subject and goal.
type Plan struct {
	ID                   string         `json:"id"`
	OwnerID              string         `json:"owner_id"`
	Subject              string         `json:"subject"`
	Goal                 string         `json:"goal"`
	Deadline             time.Time      `json:"deadline"`
	PreferredSlots       []Slot         `json:"preferred_slots"`
	Restrictions         []string       `json:"restrictions"`
	LearningStyle        string         `json:"learning_style,omitempty"`
	DifficultyPreference string         `json:"difficulty_preference,omitempty"`
	Status               Status         `json:"status"`
	Sessions             []Session      `json:"sessions"`
	Metrics              Metrics        `json:"metrics"`
	History              []Modification `json:"history"`

	// GeneratedAt is set once the scheduler has run, even when it produced
	// zero sessions.
	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Version is the optimistic-concurrency token maintained by the store.
	Version int64 `json:"version"`
}

// IsGenerated reports whether sessions were generated for this plan.
// A generated plan may still have no sessions.
func (p *Plan) IsGenerated() bool {
	return !p.GeneratedAt.IsZero()
}

// SessionIndex returns the index of the session with the given id, or -1.
func (p *Plan) SessionIndex(id string) int {
	for i := range p.Sessions {
		if p.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// Session returns the session with the given id or a *NotFoundError.
func (p *Plan) Session(id string) (Session, error) {
	i := p.SessionIndex(id)
	if i < 0 {
		return Session{}, &NotFoundError{Kind: KindSession, ID: id}
	}
	return p.Sessions[i], nil
}

// HasSlot reports whether s is one of the plan's preferred slots.
func (p *Plan) HasSlot(s Slot) bool {
	return slices.Contains(p.PreferredSlots, s)
}

// CompletedCount returns the number of completed sessions.
func (p *Plan) CompletedCount() int {
	n := 0
	for _, s := range p.Sessions {
		if s.Completed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so that commands never mutate their input.
func (p *Plan) Clone() *Plan {
	c := *p
	c.PreferredSlots = slices.Clone(p.PreferredSlots)
	c.Restrictions = slices.Clone(p.Restrictions)
	c.History = slices.Clone(p.History)
	if p.Sessions != nil {
		c.Sessions = make([]Session, len(p.Sessions))
		for i, s := range p.Sessions {
			s.Resources = slices.Clone(s.Resources)
			c.Sessions[i] = s
		}
	}
	return &c
}

// SortSessions orders sessions by calendar date. Sessions on the same date
// keep their relative order, which is the round-robin slot order the
// scheduler emitted them in.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return dateKey(sessions[i].Time) < dateKey(sessions[j].Time)
	})
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
