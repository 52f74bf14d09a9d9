package model

import "time"

// Payment status values.  PENDING is the only state that accepts inbound
// transitions; APPROVED, REJECTED and REFUNDED are terminal.  The single
// permitted edge out of a terminal state is APPROVED -> REFUNDED, which
// is an explicit administrative action.
const (
    PaymentPending  = "PENDING"
    PaymentApproved = "APPROVED"
    PaymentRejected = "REJECTED"
    PaymentRefunded = "REFUNDED"
)

// Payment methods supported by the gateway.
const (
    MethodPix        = "PIX"
    MethodCreditCard = "CREDIT_CARD"
)

// Payment is a single charge attempt against a reservation, stored in
// the `payments` table.  A reservation may accumulate several attempts
// over time (each rejected or refunded attempt permits a new one) but at
// most one payment per reservation may be PENDING or APPROVED at once.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation this attempt pays for.
//  Method        – PIX or CREDIT_CARD.
//  Status        – PENDING, APPROVED, REJECTED or REFUNDED.
//  ExternalTxID  – gateway-assigned transaction id; null until the
//                  gateway acknowledges the charge.
//  RawPayload    – last gateway payload for this payment, kept verbatim
//                  for audit and debugging.  Never used to derive the
//                  authoritative status.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Payment struct {
    ID            uint64    // payments.id
    ReservationID uint64    // payments.reservation_id
    Method        string    // payments.method
    Status        string    // payments.status
    ExternalTxID  *string   // payments.external_tx_id (nullable)
    RawPayload    []byte    // payments.raw_payload (nullable JSON)
    CreatedAt     time.Time // payments.created_at
    UpdatedAt     time.Time // payments.updated_at
}

// TerminalPaymentStatus reports whether a status permits no further
// automatic transition.
func TerminalPaymentStatus(s string) bool {
    switch s {
    case PaymentApproved, PaymentRejected, PaymentRefunded:
        return true
    }
    return false
}
