package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// Store is the persistence surface the coordinator mutates. Both
// transition methods are compare-and-set: they apply the change only
// when the row currently holds the `from` status and report whether
// this call was the one that applied it. Zero rows affected is a valid
// outcome, not an error — it means a concurrent writer already moved
// the row.
type Store interface {
	LatestPayment(ctx context.Context, reservationID uint64) (*model.Payment, error)
	PaymentByExternalID(ctx context.Context, externalTxID string) (*model.Payment, error)
	TransitionPayment(ctx context.Context, paymentID uint64, from, to string, raw []byte) (bool, error)
	TransitionReservation(ctx context.Context, reservationID uint64, from, to string) (bool, error)
	ReservationUser(ctx context.Context, reservationID uint64) (uint64, error)
}

// Gateway is the outbound surface to the payment provider. RevokeToken
// failures are treated as no-ops by callers; QueryPaymentStatus errors
// are absorbed into the last persisted status.
type Gateway interface {
	QueryPaymentStatus(ctx context.Context, externalTxID string) (status string, raw []byte, err error)
	RevokeToken(ctx context.Context, accessToken string) error
}

// CredentialStore manages per-space gateway credentials. Clear must
// null every credential field atomically.
type CredentialStore interface {
	Credentials(ctx context.Context, spaceID uint64) (*model.GatewayIntegration, error)
	ClearCredentials(ctx context.Context, spaceID uint64) error
}

// Event describes a payment state change for downstream consumers.
type Event struct {
	Type          string `json:"type"` // payment.approved | payment.rejected | payment.refunded
	ReservationID uint64 `json:"reservation_id"`
	PaymentID     uint64 `json:"payment_id"`
	UserID        uint64 `json:"user_id"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}

// Notifier delivers events to users. Delivery is fire-and-forget:
// implementations swallow their own errors and must never block a state
// transition.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Coordinator owns the payment status state machine.
//
//	PENDING  --approved-->  APPROVED   [terminal]
//	PENDING  --rejected-->  REJECTED   [terminal]
//	APPROVED --refund---->  REFUNDED   [terminal]
//
// Only PENDING accepts inbound transitions. A report that conflicts
// with an already-terminal status is logged and discarded, never
// applied and never surfaced as an error to the gateway.
type Coordinator struct {
	store    Store
	gw       Gateway
	creds    CredentialStore
	notifier Notifier
	log      *logrus.Logger
}

// New constructs a Coordinator. store, gw and creds must be non-nil;
// notifier may be nil when no delivery channel is configured.
func New(store Store, gw Gateway, creds CredentialStore, notifier Notifier, log *logrus.Logger) *Coordinator {
	if store == nil || gw == nil || creds == nil {
		panic("nil dependency passed to payment.New")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{store: store, gw: gw, creds: creds, notifier: notifier, log: log}
}

// normalize maps a gateway-reported status string onto the internal
// vocabulary. Unknown strings map to empty, which callers reject.
func normalize(gatewayStatus string) string {
	switch strings.ToUpper(strings.TrimSpace(gatewayStatus)) {
	case "APPROVED", "PAID", "SUCCEEDED", "CONFIRMED":
		return model.PaymentApproved
	case "REJECTED", "CANCELLED", "CANCELED", "FAILED", "EXPIRED", "DECLINED":
		return model.PaymentRejected
	case "PENDING", "CREATED", "WAITING", "PROCESSING":
		return model.PaymentPending
	}
	return ""
}

// CheckStatus returns the current payment status of a reservation. A
// terminal status is returned immediately without contacting the
// gateway. A pending PIX payment with a known external transaction id
// triggers an upstream status query; a gateway-reported terminal status
// is applied through the conditional-update path. When the upstream
// call fails or times out the last persisted status is returned instead
// of an error.
func (c *Coordinator) CheckStatus(ctx context.Context, reservationID uint64) (string, error) {
	p, err := c.store.LatestPayment(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if model.TerminalPaymentStatus(p.Status) {
		return p.Status, nil
	}
	// Only PIX payments are resolvable by polling; card payments
	// resolve through webhooks alone.
	if p.Method != model.MethodPix || p.ExternalTxID == nil {
		return p.Status, nil
	}
	reported, raw, err := c.gw.QueryPaymentStatus(ctx, *p.ExternalTxID)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"reservation_id": reservationID,
			"payment_id":     p.ID,
			"error":          err,
		}).Warn("gateway unavailable, returning last persisted status")
		return p.Status, nil
	}
	target := normalize(reported)
	if target == "" || target == model.PaymentPending {
		return p.Status, nil
	}
	return c.applyTerminal(ctx, p, target, raw)
}

// ApplyGatewayStatus is the shared conditional-update path used by the
// webhook endpoint. It resolves the payment by its gateway transaction
// id and applies the reported status. Duplicate reports of the current
// terminal status succeed without effect; conflicting reports after a
// terminal status are logged and discarded. The returned status is
// whatever the row holds after the call.
func (c *Coordinator) ApplyGatewayStatus(ctx context.Context, externalTxID, reported string, raw []byte) (string, error) {
	target := normalize(reported)
	if target == "" {
		return "", ErrValidation
	}
	p, err := c.store.PaymentByExternalID(ctx, externalTxID)
	if err != nil {
		return "", err
	}
	if target == model.PaymentPending {
		return p.Status, nil
	}
	return c.applyTerminal(ctx, p, target, raw)
}

// applyTerminal moves a payment into APPROVED or REJECTED via
// compare-and-set and couples the owning reservation to the outcome.
// The second writer of a concurrent pair sees zero rows affected and
// treats the transition as already applied.
func (c *Coordinator) applyTerminal(ctx context.Context, p *model.Payment, target string, raw []byte) (string, error) {
	fields := logrus.Fields{
		"payment_id":     p.ID,
		"reservation_id": p.ReservationID,
		"from":           p.Status,
		"to":             target,
	}
	applied, err := c.store.TransitionPayment(ctx, p.ID, model.PaymentPending, target, raw)
	if err != nil {
		return "", err
	}
	if !applied {
		// Another writer resolved the payment first, or the report
		// arrived after a terminal state. Re-read and decide which.
		current, err := c.store.LatestPayment(ctx, p.ReservationID)
		if err != nil {
			return "", err
		}
		if current.Status == target {
			c.log.WithFields(fields).Info("payment transition already applied")
		} else {
			c.log.WithFields(fields).WithField("persisted", current.Status).
				Warn("conflicting gateway report after terminal status, ignored")
		}
		return current.Status, nil
	}
	c.log.WithFields(fields).Info("payment transition applied")

	// Couple the reservation to the payment outcome through the same
	// conditional primitive. A zero-row update here means the
	// reservation already left PENDING (e.g. the customer cancelled);
	// the payment status still stands.
	resTarget := model.ReservationConfirmed
	evType := "payment.approved"
	if target == model.PaymentRejected {
		resTarget = model.ReservationCancelled
		evType = "payment.rejected"
	}
	if _, err := c.store.TransitionReservation(ctx, p.ReservationID, model.ReservationPending, resTarget); err != nil {
		c.log.WithFields(fields).WithError(err).Error("reservation status update failed")
	}
	c.notify(ctx, evType, p, target)
	return target, nil
}

// PollUntilResolved repeatedly invokes CheckStatus at the given interval
// until a terminal status is observed or the wall-clock ceiling elapses.
// On timeout it returns ErrPollTimeout — distinct from rejection — and
// leaves the payment untouched. Cancelling ctx abandons the loop with
// ctx.Err(); the server holds no per-poll state.
func (c *Coordinator) PollUntilResolved(ctx context.Context, reservationID uint64, interval, timeout time.Duration) (string, error) {
	if interval <= 0 || timeout <= 0 {
		return "", ErrValidation
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.CheckStatus(ctx, reservationID)
		if err != nil {
			return "", err
		}
		if model.TerminalPaymentStatus(status) {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", ErrPollTimeout
		case <-ticker.C:
		}
	}
}

// Refund performs the single permitted edge out of a terminal state:
// APPROVED -> REFUNDED. It is an explicit administrative action, never
// inferred from gateway reports. Refunding an already-refunded payment
// is an idempotent success; any other source state returns ErrConflict.
func (c *Coordinator) Refund(ctx context.Context, reservationID uint64) (string, error) {
	p, err := c.store.LatestPayment(ctx, reservationID)
	if err != nil {
		return "", err
	}
	fields := logrus.Fields{
		"payment_id":     p.ID,
		"reservation_id": p.ReservationID,
		"from":           p.Status,
		"to":             model.PaymentRefunded,
	}
	applied, err := c.store.TransitionPayment(ctx, p.ID, model.PaymentApproved, model.PaymentRefunded, nil)
	if err != nil {
		return "", err
	}
	if !applied {
		current, err := c.store.LatestPayment(ctx, reservationID)
		if err != nil {
			return "", err
		}
		if current.Status == model.PaymentRefunded {
			c.log.WithFields(fields).Info("refund already applied")
			return current.Status, nil
		}
		c.log.WithFields(fields).WithField("persisted", current.Status).Warn("refund rejected: payment not approved")
		return current.Status, ErrConflict
	}
	c.log.WithFields(fields).Info("payment refunded")
	c.notify(ctx, "payment.refunded", p, model.PaymentRefunded)
	return model.PaymentRefunded, nil
}

// DisconnectGateway revokes the stored token with the gateway on a
// best-effort basis and then clears every local credential field
// atomically. The local clearing happens even when the upstream revoke
// fails, so a space is never left claiming integration while holding
// revoked or unusable credentials. Disconnecting a space that was never
// connected is a no-op success.
func (c *Coordinator) DisconnectGateway(ctx context.Context, spaceID uint64) error {
	gi, err := c.creds.Credentials(ctx, spaceID)
	if err == nil && gi.AccessToken != "" {
		if err := c.gw.RevokeToken(ctx, gi.AccessToken); err != nil {
			c.log.WithFields(logrus.Fields{
				"space_id": spaceID,
				"error":    err,
			}).Warn("gateway token revoke failed, clearing local credentials anyway")
		}
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return c.creds.ClearCredentials(ctx, spaceID)
}

func (c *Coordinator) notify(ctx context.Context, evType string, p *model.Payment, status string) {
	if c.notifier == nil {
		return
	}
	ev := Event{
		Type:          evType,
		ReservationID: p.ReservationID,
		PaymentID:     p.ID,
		Status:        status,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if userID, err := c.store.ReservationUser(ctx, p.ReservationID); err == nil {
		ev.UserID = userID
	}
	c.notifier.Notify(ctx, ev)
}
