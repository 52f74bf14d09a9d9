package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// ErrSubscriptionNotFound is returned when no subscription matches.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionRepo persists user subscriptions to plans. Cancellation
// uses the same conditional-update shape as the rest of the codebase so
// a concurrent expiry job and an admin cancel cannot fight over the row.
type SubscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo constructs a SubscriptionRepo with the provided DB handle.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const subscriptionColumns = "id, user_id, plan_id, status, started_at, expires_at, created_at"

func scanSubscription(row interface{ Scan(...interface{}) error }) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.StartedAt, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts an ACTIVE subscription covering one plan period.
func (r *SubscriptionRepo) Create(ctx context.Context, userID, planID uint64, periodDays uint32) (*model.Subscription, error) {
	now := time.Now().UTC()
	expires := now.Add(time.Duration(periodDays) * 24 * time.Hour)
	const q = `INSERT INTO subscriptions (user_id, plan_id, status, started_at, expires_at)
	           VALUES (?, ?, 'ACTIVE', ?, ?)`
	res, err := r.db.ExecContext(ctx, q, userID, planID, now, expires)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	const sel = "SELECT " + subscriptionColumns + " FROM subscriptions WHERE id = ?"
	return scanSubscription(r.db.QueryRowContext(ctx, sel, uint64(id)))
}

// ActiveForUser returns the user's current ACTIVE subscription, if any.
func (r *SubscriptionRepo) ActiveForUser(ctx context.Context, userID uint64) (*model.Subscription, error) {
	const q = "SELECT " + subscriptionColumns + ` FROM subscriptions
	           WHERE user_id = ? AND status = 'ACTIVE' AND expires_at > UTC_TIMESTAMP()
	           ORDER BY expires_at DESC LIMIT 1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns all subscriptions, newest first. Admin surface only.
func (r *SubscriptionRepo) List(ctx context.Context) ([]*model.Subscription, error) {
	const q = "SELECT " + subscriptionColumns + " FROM subscriptions ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Cancel transitions an ACTIVE subscription to CANCELLED. Returns
// ErrSubscriptionNotFound when the row does not exist and ErrConflict
// when it is not ACTIVE.
func (r *SubscriptionRepo) Cancel(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE subscriptions SET status = 'CANCELLED' WHERE id = ? AND status = 'ACTIVE'", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions WHERE id = ?", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrSubscriptionNotFound
	}
	return ErrConflict
}
