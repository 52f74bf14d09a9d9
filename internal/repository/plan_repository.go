package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// ErrPlanNotFound is returned when a plan cannot be found in the DB.
var ErrPlanNotFound = errors.New("plan not found")

// PlanRepo encapsulates database queries for subscription plans. Plans
// are managed by administrators and browsed publicly.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo constructs a PlanRepo with the provided DB handle.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

const planColumns = "id, name, description, price_cents, period_days, is_active, created_at, updated_at"

func scanPlan(row interface{ Scan(...interface{}) error }) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.PeriodDays, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new plan and populates ID, timestamps and defaults.
func (r *PlanRepo) Create(ctx context.Context, p *model.Plan) error {
	const qInsert = `INSERT INTO plans (name, description, price_cents, period_days) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, p.Name, p.Description, p.PriceCents, p.PeriodDays)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const qSelect = "SELECT " + planColumns + " FROM plans WHERE id = ?"
	got, err := scanPlan(r.db.QueryRowContext(ctx, qSelect, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID fetches a plan by id, returning ErrPlanNotFound when absent.
func (r *PlanRepo) GetByID(ctx context.Context, id uint64) (*model.Plan, error) {
	const q = "SELECT " + planColumns + " FROM plans WHERE id = ?"
	p, err := scanPlan(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListActive returns all active plans ordered by id. Used by the public
// browse endpoint.
func (r *PlanRepo) ListActive(ctx context.Context) ([]*model.Plan, error) {
	const q = "SELECT " + planColumns + " FROM plans WHERE is_active = 1 ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies the mutable fields of a plan. Returns sql.ErrNoRows
// when the plan does not exist.
func (r *PlanRepo) Update(ctx context.Context, p *model.Plan) error {
	const q = `UPDATE plans
	           SET name = ?, description = ?, price_cents = ?, period_days = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Description, p.PriceCents, p.PeriodDays, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate hides a plan from new subscriptions without touching
// existing ones.
func (r *PlanRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE plans SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
