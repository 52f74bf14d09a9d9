package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// ErrReservationNotFound is returned when a reservation cannot be found.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides persistence for reservations. A reservation
// is a time window on a space booked by a customer; rows are never
// deleted, only status-transitioned. All status mutations are expressed
// as conditional updates ("set status=X where status=Y") so concurrent
// writers are linearized by the database rather than by locks.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying pool for handlers that need a transaction
// spanning reservation and payment inserts.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = "id, space_id, user_id, plan_id, starts_at, ends_at, amount_cents, status, created_at, updated_at"

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	var planID sql.NullInt64
	err := row.Scan(&res.ID, &res.SpaceID, &res.UserID, &planID,
		&res.StartsAt, &res.EndsAt, &res.AmountCents, &res.Status,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if planID.Valid {
		pid := uint64(planID.Int64)
		res.PlanID = &pid
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction. It populates the generated ID and defaults on the
// provided record. The caller must commit or rollback the transaction.
// Status is always created as PENDING.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (space_id, user_id, plan_id, starts_at, ends_at, amount_cents, status)
	           VALUES (?, ?, ?, ?, ?, ?, 'PENDING')`
	var planID interface{}
	if res.PlanID != nil {
		planID = *res.PlanID
	}
	result, err := tx.ExecContext(ctx, q, res.SpaceID, res.UserID, planID,
		res.StartsAt.UTC(), res.EndsAt.UTC(), res.AmountCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = "SELECT " + reservationColumns + " FROM reservations WHERE id = ?"
	got, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByID fetches a reservation by id regardless of user. It returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = "SELECT " + reservationColumns + " FROM reservations WHERE id = ?"
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// GetByIDForUser fetches a reservation and enforces that it belongs to
// the given user. Returns ErrReservationNotFound when the row does not
// exist and ErrForbidden when it belongs to someone else.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrForbidden
	}
	return res, nil
}

// ListByUser returns all reservations for the given user, newest first.
// When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Reservation, error) {
	const q = "SELECT " + reservationColumns + " FROM reservations WHERE user_id = ? ORDER BY created_at DESC"
	return r.list(ctx, q, userID)
}

// ListBySpaceForOwner returns all reservations on a space when accessed
// by its owner. It verifies ownership first: sql.ErrNoRows when the
// space does not exist, ErrForbidden when it is owned by someone else.
func (r *ReservationRepo) ListBySpaceForOwner(ctx context.Context, spaceID, ownerID uint64) ([]*model.Reservation, error) {
	var actualOwnerID uint64
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM spaces WHERE id = ?", spaceID).Scan(&actualOwnerID)
	if err != nil {
		return nil, err
	}
	if actualOwnerID != ownerID {
		return nil, ErrForbidden
	}
	const q = "SELECT " + reservationColumns + " FROM reservations WHERE space_id = ? ORDER BY created_at DESC"
	return r.list(ctx, q, spaceID)
}

func (r *ReservationRepo) list(ctx context.Context, q string, arg interface{}) ([]*model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionStatus performs the conditional status update that
// linearizes all reservation mutations: the row only changes when its
// current status matches `from`. The boolean result reports whether
// this call applied the change; false with a nil error means another
// writer got there first (or the reservation is in a different state).
func (r *ReservationRepo) TransitionStatus(ctx context.Context, id uint64, from, to string) (bool, error) {
	const q = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CancelByUser cancels a PENDING reservation on behalf of its customer.
// Returns ErrReservationNotFound when the row does not exist,
// ErrForbidden when it belongs to a different user and ErrConflict when
// the reservation is no longer PENDING.
func (r *ReservationRepo) CancelByUser(ctx context.Context, id, userID uint64) error {
	res, err := r.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	applied, err := r.TransitionStatus(ctx, res.ID, model.ReservationPending, model.ReservationCancelled)
	if err != nil {
		return err
	}
	if !applied {
		return ErrConflict
	}
	return nil
}
