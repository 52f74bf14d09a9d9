package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/model"
    "github.com/iliyamo/coworking-space-rental/internal/payment"
    "github.com/iliyamo/coworking-space-rental/internal/repository"
)

// AdminHandler groups the back-office endpoints: plan management,
// subscription oversight, user moderation and the refund action.
type AdminHandler struct {
    Plans         *repository.PlanRepo
    Subscriptions *repository.SubscriptionRepo
    Users         *repository.UserRepo
    Coordinator   *payment.Coordinator
}

func NewAdminHandler(plans *repository.PlanRepo, subs *repository.SubscriptionRepo, users *repository.UserRepo, coord *payment.Coordinator) *AdminHandler {
    if plans == nil || subs == nil || users == nil || coord == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Plans: plans, Subscriptions: subs, Users: users, Coordinator: coord}
}

type planReq struct {
    Name        string `json:"name"`
    Description string `json:"description"`
    PriceCents  uint32 `json:"price_cents"`
    PeriodDays  uint32 `json:"period_days"`
}

type planResp struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    Description string `json:"description"`
    PriceCents  uint32 `json:"price_cents"`
    PeriodDays  uint32 `json:"period_days"`
    IsActive    bool   `json:"is_active"`
}

func toPlanResp(p *model.Plan) planResp {
    return planResp{
        ID:          p.ID,
        Name:        p.Name,
        Description: p.Description,
        PriceCents:  p.PriceCents,
        PeriodDays:  p.PeriodDays,
        IsActive:    p.IsActive,
    }
}

type subscriptionResp struct {
    ID        uint64    `json:"id"`
    UserID    uint64    `json:"user_id"`
    PlanID    uint64    `json:"plan_id"`
    Status    string    `json:"status"`
    StartedAt time.Time `json:"started_at"`
    ExpiresAt time.Time `json:"expires_at"`
}

func toSubscriptionResp(s *model.Subscription) subscriptionResp {
    return subscriptionResp{
        ID:        s.ID,
        UserID:    s.UserID,
        PlanID:    s.PlanID,
        Status:    s.Status,
        StartedAt: s.StartedAt,
        ExpiresAt: s.ExpiresAt,
    }
}

func (r *planReq) validate() string {
    r.Name = strings.TrimSpace(r.Name)
    if r.Name == "" {
        return "name required"
    }
    if r.PeriodDays == 0 {
        return "period_days must be positive"
    }
    return ""
}

// CreatePlan adds a subscription plan.
func (h *AdminHandler) CreatePlan(c echo.Context) error {
    var req planReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p := &model.Plan{
        Name:        req.Name,
        Description: req.Description,
        PriceCents:  req.PriceCents,
        PeriodDays:  req.PeriodDays,
    }
    if err := h.Plans.Create(ctx, p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create plan failed"})
    }
    return c.JSON(http.StatusCreated, toPlanResp(p))
}

// UpdatePlan edits a plan in place.
func (h *AdminHandler) UpdatePlan(c echo.Context) error {
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    var req planReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    existing, err := h.Plans.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrPlanNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    existing.Name = req.Name
    existing.Description = req.Description
    existing.PriceCents = req.PriceCents
    existing.PeriodDays = req.PeriodDays
    if err := h.Plans.Update(ctx, existing); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update plan failed"})
    }
    return c.JSON(http.StatusOK, toPlanResp(existing))
}

// DeactivatePlan retires a plan from sale. Existing subscriptions run
// until they expire.
func (h *AdminHandler) DeactivatePlan(c echo.Context) error {
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Plans.Deactivate(ctx, id); err != nil {
        if err == repository.ErrPlanNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate plan failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListSubscriptions returns every subscription.
func (h *AdminHandler) ListSubscriptions(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    subs, err := h.Subscriptions.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]subscriptionResp, 0, len(subs))
    for _, s := range subs {
        out = append(out, toSubscriptionResp(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"subscriptions": out})
}

// CancelSubscription force-cancels an ACTIVE subscription.
func (h *AdminHandler) CancelSubscription(c echo.Context) error {
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscription id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Subscriptions.Cancel(ctx, id); err != nil {
        switch err {
        case repository.ErrSubscriptionNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "subscription is not active"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListUsers returns every account without password hashes.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Users.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]echo.Map, 0, len(users))
    for _, u := range users {
        out = append(out, echo.Map{
            "id":        u.ID,
            "email":     u.Email,
            "role":      u.Role,
            "is_active": u.IsActive,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// DeactivateUser blocks an account from logging in. Existing access
// tokens stay valid until they expire.
func (h *AdminHandler) DeactivateUser(c echo.Context) error {
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.SetActive(ctx, id, false); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// RefundReservation moves an APPROVED payment to REFUNDED. The only
// permitted edge out of a terminal state, and only through this
// endpoint. Refunding twice is an idempotent 200; any other source
// state is a 409 carrying the persisted status.
func (h *AdminHandler) RefundReservation(c echo.Context) error {
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    status, err := h.Coordinator.Refund(ctx, id)
    if err != nil {
        switch {
        case errors.Is(err, payment.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no payment for reservation"})
        case errors.Is(err, payment.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not approved", "status": status})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation_id": id, "status": status})
}
