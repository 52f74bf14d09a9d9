package handler // handler contains the HTTP endpoint implementations

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo context type
)

// Health responds with a simple JSON payload so load balancers and
// monitoring systems can verify the service is up.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
