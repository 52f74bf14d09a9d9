// This file defines the payment repository. Payments are charge
// attempts owned by reservations; their status column is the shared
// mutable resource of the whole system, so every mutation here is a
// compare-and-set ("UPDATE ... WHERE status = ?"). Blind overwrites of
// the status column are deliberately not offered.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// ErrPaymentNotFound is returned when no payment matches the lookup.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo provides persistence for payment attempts.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, reservation_id, method, status, external_tx_id, raw_payload, created_at, updated_at"

func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
	var p model.Payment
	var txID sql.NullString
	var raw []byte
	err := row.Scan(&p.ID, &p.ReservationID, &p.Method, &p.Status, &txID, &raw, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if txID.Valid {
		v := txID.String
		p.ExternalTxID = &v
	}
	p.RawPayload = raw
	return &p, nil
}

// CreateTx inserts a new PENDING payment attempt inside an existing
// transaction. It enforces the open-payment invariant with a guard
// SELECT: a reservation with a PENDING or APPROVED payment rejects the
// new attempt with ErrOpenPayment. The guard runs in the same
// transaction as the insert so two concurrent attempts serialize on the
// reservation row's gap/next-key lock.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const guard = `SELECT COUNT(*) FROM payments
	               WHERE reservation_id = ? AND status IN ('PENDING','APPROVED') FOR UPDATE`
	var open int
	if err := tx.QueryRowContext(ctx, guard, p.ReservationID).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrOpenPayment
	}
	const q = `INSERT INTO payments (reservation_id, method, status) VALUES (?, ?, 'PENDING')`
	result, err := tx.ExecContext(ctx, q, p.ReservationID, p.Method)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = "SELECT " + paymentColumns + " FROM payments WHERE id = ?"
	got, err := scanPayment(tx.QueryRowContext(ctx, sel, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// LatestByReservation returns the most recent payment attempt for a
// reservation, or ErrPaymentNotFound when none exists.
func (r *PaymentRepo) LatestByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	const q = "SELECT " + paymentColumns + ` FROM payments
	           WHERE reservation_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, reservationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// ByExternalTxID resolves a payment by the gateway-assigned transaction
// id. Used by the webhook path.
func (r *PaymentRepo) ByExternalTxID(ctx context.Context, txID string) (*model.Payment, error) {
	const q = "SELECT " + paymentColumns + " FROM payments WHERE external_tx_id = ? LIMIT 1"
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, txID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// SetExternalTx records the gateway transaction id and acknowledgment
// payload once the charge is created upstream.
func (r *PaymentRepo) SetExternalTx(ctx context.Context, paymentID uint64, txID string, raw []byte) error {
	const q = `UPDATE payments SET external_tx_id = ?, raw_payload = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, txID, raw, paymentID)
	return err
}

// TransitionStatus is the concurrency-safety contract of the payment
// lifecycle: the status only changes when the row currently holds
// `from`. When the update affects zero rows, this call returns
// (false, nil) and the caller treats the transition as already applied
// by a concurrent writer — never as an error. The gateway payload, when
// non-nil, is stored alongside for audit.
func (r *PaymentRepo) TransitionStatus(ctx context.Context, paymentID uint64, from, to string, raw []byte) (bool, error) {
	var res sql.Result
	var err error
	if raw != nil {
		const q = `UPDATE payments SET status = ?, raw_payload = ?, updated_at = CURRENT_TIMESTAMP
		           WHERE id = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, to, raw, paymentID, from)
	} else {
		const q = `UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP
		           WHERE id = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, to, paymentID, from)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
