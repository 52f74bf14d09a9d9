package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/coworking-space-rental/internal/gateway"
    "github.com/iliyamo/coworking-space-rental/internal/payment"
    "github.com/iliyamo/coworking-space-rental/internal/repository"
    "github.com/iliyamo/coworking-space-rental/internal/utils"
)

// stateTTL bounds how long an OAuth state parameter stays redeemable.
const stateTTL = 10 * time.Minute

const statePrefix = "gwstate:"

// GatewayHandler implements the owner-facing OAuth connect flow with
// the payment gateway. The random state parameter is bound to the space
// id in Redis so the callback can only complete for the space that
// initiated it.
type GatewayHandler struct {
    Spaces      *repository.SpaceRepo
    Gateways    *repository.GatewayRepo
    Client      *gateway.Client
    Coordinator *payment.Coordinator
    RDB         *redis.Client
}

func NewGatewayHandler(spaces *repository.SpaceRepo, gateways *repository.GatewayRepo, client *gateway.Client, coord *payment.Coordinator, rdb *redis.Client) *GatewayHandler {
    return &GatewayHandler{Spaces: spaces, Gateways: gateways, Client: client, Coordinator: coord, RDB: rdb}
}

// Connect starts the OAuth flow for one of the caller's spaces. The
// response carries the gateway authorization URL; append ?redirect=1 to
// get a 302 instead. Requires Redis: without it there is nowhere to
// bind the state parameter.
func (h *GatewayHandler) Connect(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    spaceID, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }
    if h.RDB == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "connect flow unavailable"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Spaces.GetByIDAndOwner(ctx, spaceID, uid); err != nil {
        if err == repository.ErrSpaceNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    state, err := utils.RandomState()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "state generation failed"})
    }
    if err := h.RDB.Set(ctx, statePrefix+state, spaceID, stateTTL).Err(); err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "connect flow unavailable"})
    }

    url := h.Client.AuthorizeURL(state)
    if c.QueryParam("redirect") == "1" {
        return c.Redirect(http.StatusFound, url)
    }
    return c.JSON(http.StatusOK, echo.Map{"authorize_url": url, "expires_in": int(stateTTL / time.Second)})
}

// Callback completes the OAuth flow. The state must match a live Redis
// entry; expired or foreign states are rejected. States are consumed on
// first use.
func (h *GatewayHandler) Callback(c echo.Context) error {
    state := c.QueryParam("state")
    code := c.QueryParam("code")
    if state == "" || code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "state and code required"})
    }
    if h.RDB == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "connect flow unavailable"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    raw, err := h.RDB.GetDel(ctx, statePrefix+state).Result()
    if err == redis.Nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown or expired state"})
    }
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "connect flow unavailable"})
    }
    spaceID, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || spaceID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown or expired state"})
    }

    pair, err := h.Client.ExchangeCode(ctx, code)
    if err != nil {
        if errors.Is(err, gateway.ErrUnavailable) {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "gateway unavailable"})
        }
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "code exchange failed"})
    }

    expiry := time.Now().UTC().Add(time.Duration(pair.ExpiresIn) * time.Second)
    if err := h.Gateways.Store(ctx, spaceID, pair.AccessToken, pair.RefreshToken, expiry); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store credentials failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"space_id": spaceID, "integrated": true})
}

// Disconnect revokes the space's gateway token upstream on a best-effort
// basis and clears the stored credentials. Always succeeds locally; a
// space that was never connected gets a no-op 204.
func (h *GatewayHandler) Disconnect(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    spaceID, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if _, err := h.Spaces.GetByIDAndOwner(ctx, spaceID, uid); err != nil {
        if err == repository.ErrSpaceNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if err := h.Coordinator.DisconnectGateway(ctx, spaceID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "disconnect failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
