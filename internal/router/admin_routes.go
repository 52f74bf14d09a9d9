package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/handler"
    "github.com/iliyamo/coworking-space-rental/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin. All
// routes require a valid JWT and the ADMIN role. ADMIN accounts are
// provisioned out of band; registration never produces one.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )

    // ---- Plans ----
    g.POST("/plans", a.CreatePlan)
    g.PUT("/plans/:id", a.UpdatePlan)
    g.PATCH("/plans/:id", a.UpdatePlan)
    g.DELETE("/plans/:id", a.DeactivatePlan)

    // ---- Subscriptions ----
    g.GET("/subscriptions", a.ListSubscriptions)
    g.DELETE("/subscriptions/:id", a.CancelSubscription)

    // ---- Users ----
    g.GET("/users", a.ListUsers)
    g.DELETE("/users/:id", a.DeactivateUser)

    // ---- Refunds ----
    // The single permitted edge out of a terminal payment state.
    g.POST("/reservations/:id/refund", a.RefundReservation)
}
