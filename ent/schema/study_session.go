package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// StudySession is one scheduled block of a plan.
type StudySession struct {
	ent.Schema
}

func (StudySession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("plan_id"),
		field.Int("position").
			Comment("Index in the plan's session order"),
		field.Time("time"),
		field.String("slot"),
		field.Int("duration_minutes"),
		field.String("topic"),
		field.Float("difficulty").
			Default(0),
		field.Bool("completed").
			Default(false),
		field.JSON("resources", []map[string]string{}),
	}
}

func (StudySession) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("plan", Plan.Type).
			Ref("sessions").
			Field("plan_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (StudySession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("plan_id", "position").
			Unique(),
	}
}
