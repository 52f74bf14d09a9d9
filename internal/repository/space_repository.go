// This file defines repository methods for coworking spaces. A Space is
// the unit customers browse and book; each space belongs to a single
// owner. Public browse endpoints expose only sanitized fields while
// owner endpoints return the full record.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// ErrSpaceNotFound is returned when a space cannot be found in the DB.
var ErrSpaceNotFound = errors.New("space not found")

// SpaceRepo encapsulates all database queries related to spaces. It
// depends on a sql.DB connection which should be configured elsewhere.
type SpaceRepo struct {
	db *sql.DB
}

// NewSpaceRepo constructs a SpaceRepo with the provided DB handle. This
// allows dependency injection of the database in tests and at startup.
func NewSpaceRepo(db *sql.DB) *SpaceRepo {
	return &SpaceRepo{db: db}
}

// DB exposes the underlying connection pool so handlers can open
// transactions spanning multiple repositories.
func (r *SpaceRepo) DB() *sql.DB { return r.db }

const spaceColumns = "id, owner_id, name, description, address, capacity, hourly_rate_cents, is_active, created_at, updated_at"

func scanSpace(row interface{ Scan(...interface{}) error }) (*model.Space, error) {
	var s model.Space
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Address,
		&s.Capacity, &s.HourlyRateCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new space. On success the ID, timestamps and defaults
// are populated on the provided record via a follow-up SELECT.
func (r *SpaceRepo) Create(ctx context.Context, s *model.Space) error {
	const qInsert = `INSERT INTO spaces (owner_id, name, description, address, capacity, hourly_rate_cents)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, s.OwnerID, s.Name, s.Description, s.Address, s.Capacity, s.HourlyRateCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const qSelect = "SELECT " + spaceColumns + " FROM spaces WHERE id = ?"
	got, err := scanSpace(r.db.QueryRowContext(ctx, qSelect, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID fetches a space by its ID regardless of owner. It returns
// ErrSpaceNotFound if no row is found.
func (r *SpaceRepo) GetByID(ctx context.Context, id uint64) (*model.Space, error) {
	const q = "SELECT " + spaceColumns + " FROM spaces WHERE id = ?"
	s, err := scanSpace(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByIDAndOwner fetches a space by id but only if it belongs to the
// specified owner. If the space doesn't exist or is owned by someone
// else, ErrSpaceNotFound is returned.
func (r *SpaceRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Space, error) {
	const q = "SELECT " + spaceColumns + " FROM spaces WHERE id = ? AND owner_id = ?"
	s, err := scanSpace(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListActive returns all active spaces ordered by id. It is used for
// public browsing endpoints.
func (r *SpaceRepo) ListActive(ctx context.Context) ([]*model.Space, error) {
	const q = "SELECT " + spaceColumns + " FROM spaces WHERE is_active = 1 ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Space
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOwner returns all spaces for a specific owner ordered by id.
func (r *SpaceRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Space, error) {
	const q = "SELECT " + spaceColumns + " FROM spaces WHERE owner_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Space
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the mutable fields of a space if it belongs to the
// provided owner. It returns sql.ErrNoRows when no row matches
// (not found / not owned).
func (r *SpaceRepo) Update(ctx context.Context, s *model.Space, ownerID uint64) error {
	const q = `UPDATE spaces
	           SET name = ?, description = ?, address = ?, capacity = ?, hourly_rate_cents = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Description, s.Address, s.Capacity, s.HourlyRateCents, s.IsActive, s.ID, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-removes a space from the marketplace. Existing
// reservations are untouched; the space simply stops appearing in
// browse results and rejects new bookings. If the space does not exist
// sql.ErrNoRows is returned; if it is owned by a different user
// ErrForbidden is returned.
func (r *SpaceRepo) Deactivate(ctx context.Context, id, ownerID uint64) error {
	var dbOwnerID uint64
	if err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM spaces WHERE id = ?", id).Scan(&dbOwnerID); err != nil {
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE spaces SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}
