package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PlanModification is one entry of a plan's reschedule history.
type PlanModification struct {
	ent.Schema
}

func (PlanModification) Fields() []ent.Field {
	return []ent.Field{
		field.String("plan_id"),
		field.Int("position"),
		field.String("session_id"),
		field.Time("original_time"),
		field.Time("new_time"),
		field.String("reason"),
		field.Time("timestamp"),
	}
}

func (PlanModification) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("plan", Plan.Type).
			Ref("modifications").
			Field("plan_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (PlanModification) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("plan_id", "position").
			Unique(),
	}
}
