package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	entschema "github.com/eduwise/studyplan/ent/schema"
)

// Table names.
const (
	tablePlans         = "plans"
	tableSessions      = "study_sessions"
	tableModifications = "plan_modifications"
	tableLLMEvents     = "llm_request_events"
)

// entities maps each ent schema to its table, in dependency order.
var entities = []struct {
	table string
	def   ent.Interface
}{
	{tablePlans, entschema.Plan{}},
	{tableSessions, entschema.StudySession{}},
	{tableModifications, entschema.PlanModification{}},
	{tableLLMEvents, entschema.LLMRequestEvent{}},
}

// migrate creates or updates every table described in ent/schema.
func migrate(ctx context.Context, drv dialect.Driver) error {
	tables, err := buildTables()
	if err != nil {
		return err
	}
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, tables...)
}

// buildTables derives migration tables from the ent schema descriptors:
// fields from the schema and its mixins, indexes, and a foreign key for
// every inverse edge bound to a field.
func buildTables() ([]*schema.Table, error) {
	tables := make([]*schema.Table, 0, len(entities))
	byType := make(map[string]*schema.Table, len(entities))

	for _, e := range entities {
		fields := e.def.Fields()
		indexes := e.def.Indexes()
		for _, m := range e.def.Mixin() {
			fields = append(m.Fields(), fields...)
			indexes = append(indexes, m.Indexes()...)
		}

		t := &schema.Table{Name: e.table}
		if !hasField(fields, "id") {
			id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
			t.Columns = append(t.Columns, id)
			t.PrimaryKey = []*schema.Column{id}
		}
		for _, f := range fields {
			d := f.Descriptor()
			if d.Err != nil {
				return nil, fmt.Errorf("%s.%s: %w", e.table, d.Name, d.Err)
			}
			c := columnFor(d)
			t.Columns = append(t.Columns, c)
			if d.Name == "id" {
				t.PrimaryKey = []*schema.Column{c}
			}
		}
		for _, idx := range indexes {
			d := idx.Descriptor()
			cols, err := lookupColumns(t, d.Fields)
			if err != nil {
				return nil, err
			}
			t.Indexes = append(t.Indexes, &schema.Index{
				Name:    strings.Join(append([]string{t.Name}, d.Fields...), "_"),
				Unique:  d.Unique,
				Columns: cols,
			})
		}

		tables = append(tables, t)
		byType[reflect.TypeOf(e.def).Name()] = t
	}

	for i, e := range entities {
		t := tables[i]
		for _, ed := range e.def.Edges() {
			d := ed.Descriptor()
			if !d.Inverse || d.Field == "" {
				continue
			}
			ref, ok := byType[d.Type]
			if !ok {
				return nil, fmt.Errorf("%s.%s: unknown edge type %q", t.Name, d.Name, d.Type)
			}
			cols, err := lookupColumns(t, []string{d.Field})
			if err != nil {
				return nil, err
			}
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
				Symbol:     fmt.Sprintf("%s_%s_%s", t.Name, ref.Name, d.Name),
				Columns:    cols,
				RefTable:   ref,
				RefColumns: ref.PrimaryKey,
				OnDelete:   onDelete(d),
			})
		}
	}
	return tables, nil
}

func hasField(fields []ent.Field, name string) bool {
	for _, f := range fields {
		if f.Descriptor().Name == name {
			return true
		}
	}
	return false
}

func columnFor(d *field.Descriptor) *schema.Column {
	c := &schema.Column{
		Name:     d.Name,
		Type:     d.Info.Type,
		Size:     int64(d.Size),
		Unique:   d.Unique,
		Nullable: d.Optional || d.Nillable,
	}
	// Function defaults such as time.Now are applied in Go, not in SQL.
	if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
		c.Default = d.Default
	}
	return c
}

func lookupColumns(t *schema.Table, names []string) ([]*schema.Column, error) {
	cols := make([]*schema.Column, 0, len(names))
	for _, name := range names {
		var found *schema.Column
		for _, c := range t.Columns {
			if c.Name == name {
				found = c
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%s: unknown column %q", t.Name, name)
		}
		cols = append(cols, found)
	}
	return cols, nil
}

func onDelete(d *edge.Descriptor) schema.ReferenceOption {
	for _, a := range d.Annotations {
		if sa, ok := a.(*entsql.Annotation); ok && sa.OnDelete != "" {
			return schema.ReferenceOption(sa.OnDelete)
		}
	}
	return schema.NoAction
}
