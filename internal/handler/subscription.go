package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/repository"
)

// SubscriptionHandler lets customers subscribe to plans and inspect
// their current subscription.
type SubscriptionHandler struct {
    Plans         *repository.PlanRepo
    Subscriptions *repository.SubscriptionRepo
}

func NewSubscriptionHandler(plans *repository.PlanRepo, subs *repository.SubscriptionRepo) *SubscriptionHandler {
    return &SubscriptionHandler{Plans: plans, Subscriptions: subs}
}

// Subscribe starts a subscription to an active plan. One active
// subscription per customer; a second attempt is a 409.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    planID, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Plans.GetByID(ctx, planID)
    if err != nil {
        if err == repository.ErrPlanNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !p.IsActive {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
    }

    if _, err := h.Subscriptions.ActiveForUser(ctx, uid); err == nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": "already subscribed"})
    } else if err != repository.ErrSubscriptionNotFound {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    sub, err := h.Subscriptions.Create(ctx, uid, planID, p.PeriodDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "subscribe failed"})
    }
    return c.JSON(http.StatusCreated, toSubscriptionResp(sub))
}

// MySubscription returns the caller's active subscription, if any.
func (h *SubscriptionHandler) MySubscription(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    sub, err := h.Subscriptions.ActiveForUser(ctx, uid)
    if err != nil {
        if err == repository.ErrSubscriptionNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active subscription"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toSubscriptionResp(sub))
}
