package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/config"
    "github.com/iliyamo/coworking-space-rental/internal/gateway"
    "github.com/iliyamo/coworking-space-rental/internal/model"
    "github.com/iliyamo/coworking-space-rental/internal/payment"
    "github.com/iliyamo/coworking-space-rental/internal/repository"
)

// CustomerHandler bundles everything a customer needs to book a space
// and follow the payment through to resolution.
type CustomerHandler struct {
    Cfg           config.Config
    Spaces        *repository.SpaceRepo
    Plans         *repository.PlanRepo
    Subscriptions *repository.SubscriptionRepo
    Reservations  *repository.ReservationRepo
    Payments      *repository.PaymentRepo
    Gateways      *repository.GatewayRepo
    Client        *gateway.Client
    Coordinator   *payment.Coordinator
}

func NewCustomerHandler(cfg config.Config, spaces *repository.SpaceRepo, plans *repository.PlanRepo, subs *repository.SubscriptionRepo, reservations *repository.ReservationRepo, payments *repository.PaymentRepo, gateways *repository.GatewayRepo, client *gateway.Client, coord *payment.Coordinator) *CustomerHandler {
    if spaces == nil || reservations == nil || payments == nil || gateways == nil || coord == nil {
        panic("nil dependency passed to NewCustomerHandler")
    }
    return &CustomerHandler{
        Cfg:           cfg,
        Spaces:        spaces,
        Plans:         plans,
        Subscriptions: subs,
        Reservations:  reservations,
        Payments:      payments,
        Gateways:      gateways,
        Client:        client,
        Coordinator:   coord,
    }
}

// ----- DTOs -----

type createReservationReq struct {
    StartsAt time.Time `json:"starts_at"`
    EndsAt   time.Time `json:"ends_at"`
    Method   string    `json:"method"`  // PIX | CREDIT_CARD
    PlanID   *uint64   `json:"plan_id"` // optional subscription plan
}

type reservationPart struct {
    ID          uint64    `json:"id"`
    SpaceID     uint64    `json:"space_id"`
    StartsAt    time.Time `json:"starts_at"`
    EndsAt      time.Time `json:"ends_at"`
    AmountCents uint32    `json:"amount_cents"`
    Status      string    `json:"status"`
}

type paymentPart struct {
    ID           uint64  `json:"id"`
    Method       string  `json:"method"`
    Status       string  `json:"status"`
    ExternalTxID *string `json:"external_tx_id,omitempty"`
    PixCopyPaste string  `json:"pix_copy_paste,omitempty"`
    PaymentURL   string  `json:"payment_url,omitempty"`
}

func toReservationPart(r *model.Reservation) reservationPart {
    return reservationPart{
        ID:          r.ID,
        SpaceID:     r.SpaceID,
        StartsAt:    r.StartsAt,
        EndsAt:      r.EndsAt,
        AmountCents: r.AmountCents,
        Status:      r.Status,
    }
}

// CreateReservation books a space for a time window and opens the
// payment attempt in the same transaction. The amount is the space's
// hourly rate times the (rounded up) number of hours, frozen on the
// row. When the space has a live gateway integration the charge is
// registered upstream right away; a gateway outage at that point is
// absorbed and the payment simply stays PENDING without an external id.
func (h *CustomerHandler) CreateReservation(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    spaceID, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }

    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Method != model.MethodPix && req.Method != model.MethodCreditCard {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be PIX or CREDIT_CARD"})
    }
    if req.StartsAt.IsZero() || req.EndsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    space, err := h.Spaces.GetByID(ctx, spaceID)
    if err != nil {
        if err == repository.ErrSpaceNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !space.IsActive {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
    }

    // A plan may only be attached when it exists and the customer holds
    // an active subscription to it.
    if req.PlanID != nil {
        if _, err := h.Plans.GetByID(ctx, *req.PlanID); err != nil {
            if err == repository.ErrPlanNotFound {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown plan"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
        sub, err := h.Subscriptions.ActiveForUser(ctx, uid)
        if err != nil {
            if err == repository.ErrSubscriptionNotFound {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active subscription for plan"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
        if sub.PlanID != *req.PlanID {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active subscription for plan"})
        }
    }

    hours := int64(req.EndsAt.Sub(req.StartsAt) / time.Hour)
    if req.EndsAt.Sub(req.StartsAt)%time.Hour != 0 {
        hours++ // partial hours are billed as full
    }
    amount := uint32(hours) * space.HourlyRateCents

    tx, err := h.Reservations.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res := &model.Reservation{
        SpaceID:     spaceID,
        UserID:      uid,
        PlanID:      req.PlanID,
        StartsAt:    req.StartsAt.UTC(),
        EndsAt:      req.EndsAt.UTC(),
        AmountCents: amount,
    }
    if err := h.Reservations.CreateTx(ctx, tx, res); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
    }

    pay := &model.Payment{ReservationID: res.ID, Method: req.Method}
    if err := h.Payments.CreateTx(ctx, tx, pay); err != nil {
        if err == repository.ErrOpenPayment {
            return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already has an open payment"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    pp := paymentPart{ID: pay.ID, Method: pay.Method, Status: pay.Status}

    // Register the charge upstream when the space is integrated.
    gi, err := h.Gateways.Get(ctx, spaceID)
    if err == nil && gi.Integrated {
        ref := fmt.Sprintf("resv-%d-pay-%d", res.ID, pay.ID)
        charge, raw, err := h.Client.CreateCharge(ctx, gi.AccessToken, ref, pay.Method, amount)
        if err != nil {
            c.Logger().Warnf("gateway charge failed for reservation %d: %v", res.ID, err)
        } else {
            if err := h.Payments.SetExternalTx(ctx, pay.ID, charge.ID, raw); err != nil {
                c.Logger().Warnf("store external tx for payment %d: %v", pay.ID, err)
            } else {
                pp.ExternalTxID = &charge.ID
                pp.PixCopyPaste = charge.PixCopyPad
                pp.PaymentURL = charge.PaymentURL
            }
        }
    } else if err != nil && err != repository.ErrIntegrationNotFound {
        c.Logger().Warnf("load gateway integration for space %d: %v", spaceID, err)
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "reservation": toReservationPart(res),
        "payment":     pp,
    })
}

// MyReservations lists the caller's reservations, newest first.
func (h *CustomerHandler) MyReservations(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Reservations.ListByUser(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]reservationPart, 0, len(list))
    for _, r := range list {
        out = append(out, toReservationPart(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// GetReservation returns one reservation owned by the caller.
func (h *CustomerHandler) GetReservation(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    r, err := h.Reservations.GetByIDForUser(ctx, id, uid)
    if err != nil {
        switch err {
        case repository.ErrReservationNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toReservationPart(r))
}

// CancelReservation cancels a PENDING reservation owned by the caller.
// Confirmed or already-cancelled reservations return 409.
func (h *CustomerHandler) CancelReservation(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Reservations.CancelByUser(ctx, id, uid); err != nil {
        switch err {
        case repository.ErrReservationNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not pending"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// GetPaymentStatus returns the current payment status of a reservation
// owned by the caller. A pending PIX payment triggers one upstream
// check; gateway outages surface as the last persisted status, never as
// an error or a rejection.
func (h *CustomerHandler) GetPaymentStatus(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    if _, err := h.Reservations.GetByIDForUser(ctx, id, uid); err != nil {
        switch err {
        case repository.ErrReservationNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    status, err := h.Coordinator.CheckStatus(ctx, id)
    if err != nil {
        if errors.Is(err, payment.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no payment for reservation"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status check failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation_id": id, "status": status})
}

// WaitPaymentStatus blocks until the payment resolves or the wall-clock
// ceiling elapses, answering 408 in the latter case. Interval and
// timeout come from the query string as Go durations and are clamped to
// the configured ceiling.
func (h *CustomerHandler) WaitPaymentStatus(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    interval := h.Cfg.PollInterval
    if raw := c.QueryParam("interval"); raw != "" {
        d, err := time.ParseDuration(raw)
        if err != nil || d <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interval"})
        }
        interval = d
    }
    if interval < 200*time.Millisecond {
        interval = 200 * time.Millisecond
    }
    timeout := h.Cfg.PollTimeout
    if raw := c.QueryParam("timeout"); raw != "" {
        d, err := time.ParseDuration(raw)
        if err != nil || d <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timeout"})
        }
        timeout = d
    }
    if timeout > h.Cfg.PollTimeout {
        timeout = h.Cfg.PollTimeout
    }

    ctx := c.Request().Context()

    if _, err := h.Reservations.GetByIDForUser(ctx, id, uid); err != nil {
        switch err {
        case repository.ErrReservationNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    status, err := h.Coordinator.PollUntilResolved(ctx, id, interval, timeout)
    if err != nil {
        switch {
        case errors.Is(err, payment.ErrPollTimeout):
            return c.JSON(http.StatusRequestTimeout, echo.Map{"error": "payment still pending", "reservation_id": id})
        case errors.Is(err, payment.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no payment for reservation"})
        case errors.Is(err, context.Canceled):
            return err // client went away
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status wait failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation_id": id, "status": status})
}
