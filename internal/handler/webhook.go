package handler

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/gateway"
    "github.com/iliyamo/coworking-space-rental/internal/payment"
)

// WebhookHandler receives asynchronous payment notifications from the
// gateway. The endpoint is not behind JWT; authenticity comes from an
// HMAC-SHA256 signature over the raw body using the shared secret.
type WebhookHandler struct {
    Secret      string
    Coordinator *payment.Coordinator
}

func NewWebhookHandler(secret string, coord *payment.Coordinator) *WebhookHandler {
    return &WebhookHandler{Secret: secret, Coordinator: coord}
}

type gatewayWebhookReq struct {
    ID           string `json:"id"`
    ExternalTxID string `json:"external_tx_id"`
    Status       string `json:"status"`
}

// HandleGateway verifies the signature and routes the reported status
// through the same conditional-update path the poller uses. Replays of
// an already-applied status and reports for unknown transactions are
// acknowledged with 200 so the gateway stops retrying; only a bad
// signature (401) or an unparseable body (400) is refused.
func (h *WebhookHandler) HandleGateway(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
    }
    sig := c.Request().Header.Get("X-Gateway-Signature")
    if !gateway.VerifySignature(h.Secret, body, sig) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
    }

    var req gatewayWebhookReq
    if err := json.Unmarshal(body, &req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    txID := req.ExternalTxID
    if txID == "" {
        txID = req.ID
    }
    if txID == "" || req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "id and status required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    status, err := h.Coordinator.ApplyGatewayStatus(ctx, txID, req.Status, body)
    if err != nil {
        switch {
        case errors.Is(err, payment.ErrValidation):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status value"})
        case errors.Is(err, payment.ErrNotFound):
            // Unknown transaction: acknowledge so the gateway stops
            // retrying a charge we never issued.
            return c.JSON(http.StatusOK, echo.Map{"result": "ignored"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "apply failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"result": "applied", "status": status})
}
