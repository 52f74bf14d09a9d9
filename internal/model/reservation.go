package model

import "time"

// Reservation status values.  A reservation is created PENDING, becomes
// CONFIRMED when its payment is approved and CANCELLED when the payment
// is rejected or the customer cancels.  Reservations are never deleted,
// only status-transitioned.
const (
    ReservationPending   = "PENDING"
    ReservationConfirmed = "CONFIRMED"
    ReservationCancelled = "CANCELLED"
)

// Reservation records a customer's booking of a space for a time
// window.  The amount is computed from the space's hourly rate at
// booking time and frozen on the row.
//
// Fields:
//  ID          – primary key identifier.
//  SpaceID     – space being booked.
//  UserID      – customer who made the reservation.
//  PlanID      – optional subscription plan applied to the booking.
//  StartsAt    – beginning of the rental window (UTC).
//  EndsAt      – end of the rental window (UTC); always after StartsAt.
//  AmountCents – total price in cents (non-negative).
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Reservation struct {
    ID          uint64    // reservations.id
    SpaceID     uint64    // reservations.space_id
    UserID      uint64    // reservations.user_id
    PlanID      *uint64   // reservations.plan_id (nullable)
    StartsAt    time.Time // reservations.starts_at
    EndsAt      time.Time // reservations.ends_at
    AmountCents uint32    // reservations.amount_cents
    Status      string    // reservations.status
    CreatedAt   time.Time // reservations.created_at
    UpdatedAt   time.Time // reservations.updated_at
}
