package handler

import (
    "context"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/coworking-space-rental/internal/gateway"
    "github.com/iliyamo/coworking-space-rental/internal/model"
    "github.com/iliyamo/coworking-space-rental/internal/payment"
)

const testWebhookSecret = "whsec_test"

// webhookStore is the minimal in-memory backend needed to drive the
// webhook path through a real Coordinator.
type webhookStore struct {
    mu        sync.Mutex
    payment   *model.Payment
    resStatus string
}

func (s *webhookStore) LatestPayment(ctx context.Context, reservationID uint64) (*model.Payment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.payment == nil || s.payment.ReservationID != reservationID {
        return nil, payment.ErrNotFound
    }
    cp := *s.payment
    return &cp, nil
}

func (s *webhookStore) PaymentByExternalID(ctx context.Context, externalTxID string) (*model.Payment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.payment == nil || s.payment.ExternalTxID == nil || *s.payment.ExternalTxID != externalTxID {
        return nil, payment.ErrNotFound
    }
    cp := *s.payment
    return &cp, nil
}

func (s *webhookStore) TransitionPayment(ctx context.Context, paymentID uint64, from, to string, raw []byte) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.payment == nil || s.payment.ID != paymentID || s.payment.Status != from {
        return false, nil
    }
    s.payment.Status = to
    return true, nil
}

func (s *webhookStore) TransitionReservation(ctx context.Context, reservationID uint64, from, to string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.resStatus != from {
        return false, nil
    }
    s.resStatus = to
    return true, nil
}

func (s *webhookStore) ReservationUser(ctx context.Context, reservationID uint64) (uint64, error) {
    return 1, nil
}

func (s *webhookStore) Credentials(ctx context.Context, spaceID uint64) (*model.GatewayIntegration, error) {
    return nil, payment.ErrNotFound
}

func (s *webhookStore) ClearCredentials(ctx context.Context, spaceID uint64) error { return nil }

type noopGateway struct{}

func (noopGateway) QueryPaymentStatus(ctx context.Context, externalTxID string) (string, []byte, error) {
    return "PENDING", nil, nil
}
func (noopGateway) RevokeToken(ctx context.Context, accessToken string) error { return nil }

func newWebhookFixture() (*webhookStore, *WebhookHandler) {
    txID := "tx-1"
    store := &webhookStore{
        payment: &model.Payment{
            ID:            10,
            ReservationID: 1,
            Method:        model.MethodPix,
            Status:        model.PaymentPending,
            ExternalTxID:  &txID,
        },
        resStatus: model.ReservationPending,
    }
    log := logrus.New()
    log.SetOutput(io.Discard)
    coord := payment.New(store, noopGateway{}, store, nil, log)
    return store, NewWebhookHandler(testWebhookSecret, coord)
}

func postWebhook(h *WebhookHandler, body, sig string) *httptest.ResponseRecorder {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/gateway", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if sig != "" {
        req.Header.Set("X-Gateway-Signature", sig)
    }
    rec := httptest.NewRecorder()
    _ = h.HandleGateway(e.NewContext(req, rec))
    return rec
}

func TestWebhookAppliesSignedReport(t *testing.T) {
    store, h := newWebhookFixture()
    body := `{"external_tx_id":"tx-1","status":"APPROVED"}`
    rec := postWebhook(h, body, gateway.SignPayload(testWebhookSecret, []byte(body)))

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
    }
    if store.payment.Status != model.PaymentApproved {
        t.Fatalf("payment status = %q, want APPROVED", store.payment.Status)
    }
    if store.resStatus != model.ReservationConfirmed {
        t.Fatalf("reservation status = %q, want CONFIRMED", store.resStatus)
    }
}

func TestWebhookRejectsBadSignature(t *testing.T) {
    store, h := newWebhookFixture()
    body := `{"external_tx_id":"tx-1","status":"APPROVED"}`
    rec := postWebhook(h, body, gateway.SignPayload("wrong-secret", []byte(body)))

    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("status = %d, want 401", rec.Code)
    }
    if store.payment.Status != model.PaymentPending {
        t.Fatalf("unsigned report must not change state, got %q", store.payment.Status)
    }
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
    _, h := newWebhookFixture()
    body := `{"external_tx_id":"tx-1","status":"APPROVED"}`
    if rec := postWebhook(h, body, ""); rec.Code != http.StatusUnauthorized {
        t.Fatalf("status = %d, want 401", rec.Code)
    }
}

func TestWebhookReplayIsAcknowledged(t *testing.T) {
    store, h := newWebhookFixture()
    body := `{"external_tx_id":"tx-1","status":"APPROVED"}`
    sig := gateway.SignPayload(testWebhookSecret, []byte(body))

    for i := 0; i < 2; i++ {
        if rec := postWebhook(h, body, sig); rec.Code != http.StatusOK {
            t.Fatalf("delivery #%d: status = %d, want 200", i+1, rec.Code)
        }
    }
    if store.payment.Status != model.PaymentApproved {
        t.Fatalf("payment status = %q, want APPROVED", store.payment.Status)
    }
}

func TestWebhookUnknownTransactionAcknowledged(t *testing.T) {
    _, h := newWebhookFixture()
    body := `{"external_tx_id":"tx-unknown","status":"APPROVED"}`
    rec := postWebhook(h, body, gateway.SignPayload(testWebhookSecret, []byte(body)))

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200 so the gateway stops retrying", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), "ignored") {
        t.Fatalf("body = %s, want ignored marker", rec.Body)
    }
}

func TestWebhookUnparseableBody(t *testing.T) {
    _, h := newWebhookFixture()
    body := `{"external_tx_id":`
    rec := postWebhook(h, body, gateway.SignPayload(testWebhookSecret, []byte(body)))

    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
}

func TestWebhookUnknownStatusVocabulary(t *testing.T) {
    store, h := newWebhookFixture()
    body := `{"external_tx_id":"tx-1","status":"ON_HOLD"}`
    rec := postWebhook(h, body, gateway.SignPayload(testWebhookSecret, []byte(body)))

    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if store.payment.Status != model.PaymentPending {
        t.Fatalf("unknown vocabulary must not change state, got %q", store.payment.Status)
    }
}
