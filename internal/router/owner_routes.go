package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/handler"    // owner handlers
    "github.com/iliyamo/coworking-space-rental/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, gw *handler.GatewayHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("OWNER"),
    )

    // ---- Spaces ----
    g.POST("/spaces", o.CreateSpace)
    // NOTE: Listing active spaces is handled by the public browse API;
    // owners list their own (inactive included) here.
    g.GET("/my-spaces", o.ListMySpaces)
    g.PUT("/spaces/:id", o.UpdateSpace)
    g.PATCH("/spaces/:id", o.UpdateSpace) // allow partial/semantic updates via PATCH as well
    g.DELETE("/spaces/:id", o.DeactivateSpace)
    g.GET("/spaces/:id/reservations", o.ListSpaceReservations)

    // ---- Gateway integration ----
    g.GET("/spaces/:id/gateway/connect", gw.Connect)
    g.POST("/spaces/:id/gateway/disconnect", gw.Disconnect)

    // The OAuth callback is hit by the gateway's redirect, so it cannot
    // sit behind JWT. The state parameter is its authentication.
    e.GET("/v1/gateway/callback", gw.Callback)
}
