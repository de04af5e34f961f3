package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Plan is a generated study plan. Sessions and the reschedule history live
// in their own tables and are replaced as a whole on every save.
type Plan struct {
	ent.Schema
}

func (Plan) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("owner_id"),
		field.String("subject"),
		field.Text("goal"),
		field.Time("deadline"),
		field.JSON("preferred_slots", []string{}),
		field.JSON("restrictions", []string{}),
		field.String("learning_style").
			Default(""),
		field.String("difficulty_preference").
			Default(""),
		field.String("status").
			Default("active"),
		field.JSON("metrics", map[string]any{}).
			Comment("Last computed plan metrics"),
		field.Time("generated_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Immutable(),
		field.Time("updated_at"),
		field.Int64("version").
			Default(1).
			Comment("Optimistic concurrency token, bumped on every save"),
	}
}

func (Plan) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("sessions", StudySession.Type),
		edge.To("modifications", PlanModification.Type),
	}
}

func (Plan) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("owner_id"),
		index.Fields("owner_id", "status"),
	}
}
