// Package payment implements the payment lifecycle coordinator: the
// authoritative mapping from a reservation to its current payment
// status. It reconciles two inputs — polled status checks and
// asynchronous gateway callbacks — while guaranteeing monotonic
// progress: once a payment reaches a terminal status it never regresses.
package payment

import "errors"

// ErrNotFound is returned when no payment exists for the reservation.
// Handlers translate this into an HTTP 404.
var ErrNotFound = errors.New("no payment for reservation")

// ErrValidation is returned for malformed transition requests, such as
// an unknown gateway status string. Handlers translate this into 400.
var ErrValidation = errors.New("invalid payment request")

// ErrGatewayUnavailable marks a transient upstream failure. It is
// absorbed inside the coordinator — callers receive the last persisted
// status instead — and only appears in logs. A transient gateway fault
// must never be read as a payment rejection.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ErrConflict is returned when an explicit transition (such as an admin
// refund) targets a payment that is not in the required source state.
// Inbound gateway reports never produce this error; they are logged and
// ignored instead.
var ErrConflict = errors.New("payment not in a state that permits this transition")

// ErrPollTimeout is returned when a polling loop reaches its wall-clock
// ceiling before observing a terminal status. The payment itself remains
// pending server-side; only the observing request gives up, so the
// caller may safely retry.
var ErrPollTimeout = errors.New("timed out waiting for payment resolution")
