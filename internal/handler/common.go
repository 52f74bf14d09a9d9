package handler // handler defines http handlers

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the user_id stored in echo.Context by the JWT
// middleware and converts it to uint64. JWT numeric claims decode as
// float64, so every plausible representation is handled.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter into uint64.
func parseID(raw string) (uint64, error) {
    n, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || n == 0 {
        return 0, errors.New("invalid id")
    }
    return n, nil
}
