package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/eduwise/studyplan/internal/plan"
)

var (
	planColumns = []string{
		"id", "owner_id", "subject", "goal", "deadline", "preferred_slots",
		"restrictions", "learning_style", "difficulty_preference", "status",
		"metrics", "generated_at", "created_at", "updated_at", "version",
	}
	sessionColumns = []string{
		"id", "plan_id", "position", "time", "slot", "duration_minutes",
		"topic", "difficulty", "completed", "resources",
	}
	modificationColumns = []string{
		"plan_id", "position", "session_id", "original_time", "new_time",
		"reason", "timestamp",
	}
)

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// PlanRepo persists plans with their sessions and reschedule history.
// Saves are guarded by the plan version.
type PlanRepo struct {
	db *sql.DB
}

// LoadPlan returns the plan with the given id owned by owner, or a
// *plan.NotFoundError.
func (r *PlanRepo) LoadPlan(ctx context.Context, id, owner string) (*plan.Plan, error) {
	query, args := builder().
		Select(planColumns...).
		From(entsql.Table(tablePlans)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner))).
		Query()

	p, err := scanPlan(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &plan.NotFoundError{Kind: plan.KindPlan, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}
	if err := r.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlans returns every plan of owner, oldest first.
func (r *PlanRepo) ListPlans(ctx context.Context, owner string) ([]*plan.Plan, error) {
	query, args := builder().
		Select(planColumns...).
		From(entsql.Table(tablePlans)).
		Where(entsql.EQ("owner_id", owner)).
		OrderBy("created_at", "id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	var plans []*plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("list plans: %w", err)
		}
		plans = append(plans, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	// Children are read after the cursor is closed; the store runs on a
	// single connection.
	for _, p := range plans {
		if err := r.loadChildren(ctx, p); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// SavePlan inserts p when p.Version is zero and otherwise updates it if
// the stored version still equals p.Version. A stale version yields a
// *plan.ConflictError. On success p.Version holds the new version.
func (r *PlanRepo) SavePlan(ctx context.Context, p *plan.Plan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	next := p.Version + 1
	if p.Version == 0 {
		err = insertPlan(ctx, tx, p)
	} else {
		err = updatePlan(ctx, tx, p)
	}
	if err != nil {
		return err
	}
	if err := replaceChildren(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan %s: %w", p.ID, err)
	}
	p.Version = next
	return nil
}

// DeletePlan removes the plan; sessions and history go with it.
func (r *PlanRepo) DeletePlan(ctx context.Context, id, owner string) error {
	query, args := builder().
		Delete(tablePlans).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner))).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &plan.NotFoundError{Kind: plan.KindPlan, ID: id}
	}
	return nil
}

func insertPlan(ctx context.Context, tx *sql.Tx, p *plan.Plan) error {
	vals, err := planValues(p)
	if err != nil {
		return err
	}
	query, args := builder().
		Insert(tablePlans).
		Columns(planColumns...).
		Values(append(vals, int64(1))...).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert plan %s: %w", p.ID, err)
	}
	return nil
}

func updatePlan(ctx context.Context, tx *sql.Tx, p *plan.Plan) error {
	vals, err := planValues(p)
	if err != nil {
		return err
	}
	upd := builder().Update(tablePlans)
	// id and created_at are immutable.
	for i, col := range planColumns[:len(planColumns)-1] {
		if col == "id" || col == "created_at" {
			continue
		}
		upd.Set(col, vals[i])
	}
	query, args := upd.
		Set("version", p.Version+1).
		Where(entsql.And(
			entsql.EQ("id", p.ID),
			entsql.EQ("owner_id", p.OwnerID),
			entsql.EQ("version", p.Version),
		)).
		Query()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update plan %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return conflictOrMissing(ctx, tx, p)
	}
	return nil
}

// conflictOrMissing tells a stale version apart from a deleted plan.
func conflictOrMissing(ctx context.Context, tx *sql.Tx, p *plan.Plan) error {
	query, args := builder().
		Select("version").
		From(entsql.Table(tablePlans)).
		Where(entsql.And(entsql.EQ("id", p.ID), entsql.EQ("owner_id", p.OwnerID))).
		Query()
	var current int64
	err := tx.QueryRowContext(ctx, query, args...).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return &plan.NotFoundError{Kind: plan.KindPlan, ID: p.ID}
	}
	if err != nil {
		return fmt.Errorf("check plan version %s: %w", p.ID, err)
	}
	return &plan.ConflictError{PlanID: p.ID, Version: current}
}

// planValues returns the column values of p in planColumns order, without
// the trailing version.
func planValues(p *plan.Plan) ([]any, error) {
	slots, err := marshalJSON(p.PreferredSlots)
	if err != nil {
		return nil, err
	}
	restrictions, err := marshalJSON(p.Restrictions)
	if err != nil {
		return nil, err
	}
	metrics, err := marshalJSON(p.Metrics)
	if err != nil {
		return nil, err
	}
	var generatedAt any
	if p.IsGenerated() {
		generatedAt = p.GeneratedAt.UTC()
	}
	status := p.Status
	if status == "" {
		status = plan.StatusActive
	}
	return []any{
		p.ID, p.OwnerID, p.Subject, p.Goal, p.Deadline.UTC(), slots,
		restrictions, p.LearningStyle, p.DifficultyPreference, string(status),
		metrics, generatedAt, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}, nil
}

func replaceChildren(ctx context.Context, tx *sql.Tx, p *plan.Plan) error {
	for _, table := range []string{tableSessions, tableModifications} {
		query, args := builder().Delete(table).Where(entsql.EQ("plan_id", p.ID)).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s of plan %s: %w", table, p.ID, err)
		}
	}

	if len(p.Sessions) > 0 {
		ins := builder().Insert(tableSessions).Columns(sessionColumns...)
		for i, s := range p.Sessions {
			resources, err := marshalJSON(s.Resources)
			if err != nil {
				return err
			}
			ins.Values(s.ID, p.ID, i, s.Time.UTC(), string(s.Slot), s.DurationMinutes,
				s.Topic, s.Difficulty, s.Completed, resources)
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert sessions of plan %s: %w", p.ID, err)
		}
	}

	if len(p.History) > 0 {
		ins := builder().Insert(tableModifications).Columns(modificationColumns...)
		for i, m := range p.History {
			ins.Values(p.ID, i, m.SessionID, m.OriginalTime.UTC(), m.NewTime.UTC(),
				m.Reason, m.Timestamp.UTC())
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert history of plan %s: %w", p.ID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*plan.Plan, error) {
	var (
		p                            plan.Plan
		slots, restrictions, metrics string
		status                       string
		generatedAt                  sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Subject, &p.Goal, &p.Deadline, &slots,
		&restrictions, &p.LearningStyle, &p.DifficultyPreference, &status,
		&metrics, &generatedAt, &p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	p.Status = plan.Status(status)
	// Times are stored in UTC; slot hours and trend buckets are local.
	p.Deadline = p.Deadline.Local()
	p.CreatedAt = p.CreatedAt.Local()
	p.UpdatedAt = p.UpdatedAt.Local()
	if generatedAt.Valid {
		p.GeneratedAt = generatedAt.Time.Local()
	}
	if err := unmarshalJSON(slots, &p.PreferredSlots); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(restrictions, &p.Restrictions); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metrics, &p.Metrics); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlanRepo) loadChildren(ctx context.Context, p *plan.Plan) error {
	query, args := builder().
		Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("plan_id", p.ID)).
		OrderBy("position").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load sessions of plan %s: %w", p.ID, err)
	}
	p.Sessions = []plan.Session{}
	for rows.Next() {
		var (
			s         plan.Session
			planID    string
			position  int
			slot      string
			resources string
		)
		if err := rows.Scan(&s.ID, &planID, &position, &s.Time, &slot, &s.DurationMinutes,
			&s.Topic, &s.Difficulty, &s.Completed, &resources); err != nil {
			rows.Close()
			return fmt.Errorf("scan session: %w", err)
		}
		s.Time = s.Time.Local()
		s.Slot = plan.Slot(slot)
		if err := unmarshalJSON(resources, &s.Resources); err != nil {
			rows.Close()
			return err
		}
		p.Sessions = append(p.Sessions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load sessions of plan %s: %w", p.ID, err)
	}

	query, args = builder().
		Select(modificationColumns[2:]...).
		From(entsql.Table(tableModifications)).
		Where(entsql.EQ("plan_id", p.ID)).
		OrderBy("position").
		Query()
	rows, err = r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load history of plan %s: %w", p.ID, err)
	}
	defer rows.Close()
	p.History = []plan.Modification{}
	for rows.Next() {
		var m plan.Modification
		if err := rows.Scan(&m.SessionID, &m.OriginalTime, &m.NewTime, &m.Reason, &m.Timestamp); err != nil {
			return fmt.Errorf("scan modification: %w", err)
		}
		m.OriginalTime = m.OriginalTime.Local()
		m.NewTime = m.NewTime.Local()
		m.Timestamp = m.Timestamp.Local()
		p.History = append(p.History, m)
	}
	return rows.Err()
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %T: %w", v, err)
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}
