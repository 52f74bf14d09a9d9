// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the payment coordinator to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current user is not authorized to perform an operation on a resource
// owned by someone else, while ErrConflict signals that a conditional
// update found the row in an unexpected state.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as cancelling a reservation that is no
// longer PENDING. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrOpenPayment is returned when a new payment attempt is created for
// a reservation that already has a PENDING or APPROVED payment. The
// invariant is: at most one open payment per reservation.
var ErrOpenPayment = errors.New("reservation already has an open payment")
