package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework for routing

    "github.com/iliyamo/coworking-space-rental/internal/handler"
    "github.com/iliyamo/coworking-space-rental/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid token of any
// role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts either a bearer token (revoke all sessions) or a
    // refresh_token in the body (revoke one session); no JWT middleware.
    g.POST("/logout", a.Logout)
    e.POST("/v1/logout", a.Logout)

    e.GET("/v1/me", a.Me,
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER", "OWNER", "ADMIN"))
}

// RegisterPublic registers the unauthenticated browse endpoints. The
// optional middleware chain (response cache, rate limiter) applies to
// these routes only; the payment status endpoints are deliberately
// outside it.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
    g := e.Group("", mw...)
    g.GET("/v1/spaces", p.GetPublicSpaces)
    g.GET("/v1/spaces/:id", p.GetPublicSpace)
    g.GET("/v1/plans", p.GetPublicPlans)
}

// RegisterWebhook registers the gateway callback endpoint. No JWT: the
// HMAC signature over the body is the authentication.
func RegisterWebhook(e *echo.Echo, w *handler.WebhookHandler) {
    e.POST("/v1/webhooks/gateway", w.HandleGateway)
}
