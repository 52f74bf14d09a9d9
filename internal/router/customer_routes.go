package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/handler"
    "github.com/iliyamo/coworking-space-rental/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the CUSTOMER role. Customers book
// spaces, follow their payment through to resolution and manage their
// plan subscription.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, s *handler.SubscriptionHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER"),
    )

    // Booking: reservation and payment attempt are created together.
    g.POST("/spaces/:id/reservations", h.CreateReservation)
    g.GET("/my-reservations", h.MyReservations)
    g.GET("/reservations/:id", h.GetReservation)
    g.DELETE("/reservations/:id", h.CancelReservation)

    // Payment status: single check and long-poll variant. Never cached.
    g.GET("/reservations/:id/status", h.GetPaymentStatus)
    g.GET("/reservations/:id/status/wait", h.WaitPaymentStatus)

    // Plan subscriptions.
    g.POST("/plans/:id/subscribe", s.Subscribe)
    g.GET("/my-subscription", s.MySubscription)
}
