package payment

import (
    "context"
    "errors"
    "io"
    "sync"
    "testing"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/coworking-space-rental/internal/model"
)

// memStore is an in-memory Store + CredentialStore with the same
// conditional-update semantics as the SQL layer: a transition only
// applies when the current status matches the expected one, and the
// caller learns whether it was this call that applied it.
type memStore struct {
    mu         sync.Mutex
    payments   map[uint64]*model.Payment // by payment id
    byTx       map[string]uint64         // external tx id -> payment id
    byRes      map[uint64]uint64         // reservation id -> payment id
    resStatus  map[uint64]string         // reservation id -> status
    resUser    map[uint64]uint64         // reservation id -> user id
    creds      map[uint64]*model.GatewayIntegration
    clearCalls int
}

func newMemStore() *memStore {
    return &memStore{
        payments:  map[uint64]*model.Payment{},
        byTx:      map[string]uint64{},
        byRes:     map[uint64]uint64{},
        resStatus: map[uint64]string{},
        resUser:   map[uint64]uint64{},
        creds:     map[uint64]*model.GatewayIntegration{},
    }
}

func (s *memStore) addPayment(p model.Payment) {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := p
    s.payments[p.ID] = &cp
    s.byRes[p.ReservationID] = p.ID
    if p.ExternalTxID != nil {
        s.byTx[*p.ExternalTxID] = p.ID
    }
    if _, ok := s.resStatus[p.ReservationID]; !ok {
        s.resStatus[p.ReservationID] = model.ReservationPending
    }
}

func (s *memStore) LatestPayment(ctx context.Context, reservationID uint64) (*model.Payment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id, ok := s.byRes[reservationID]
    if !ok {
        return nil, ErrNotFound
    }
    cp := *s.payments[id]
    return &cp, nil
}

func (s *memStore) PaymentByExternalID(ctx context.Context, externalTxID string) (*model.Payment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id, ok := s.byTx[externalTxID]
    if !ok {
        return nil, ErrNotFound
    }
    cp := *s.payments[id]
    return &cp, nil
}

func (s *memStore) TransitionPayment(ctx context.Context, paymentID uint64, from, to string, raw []byte) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.payments[paymentID]
    if !ok || p.Status != from {
        return false, nil
    }
    p.Status = to
    if raw != nil {
        p.RawPayload = raw
    }
    return true, nil
}

func (s *memStore) TransitionReservation(ctx context.Context, reservationID uint64, from, to string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.resStatus[reservationID] != from {
        return false, nil
    }
    s.resStatus[reservationID] = to
    return true, nil
}

func (s *memStore) ReservationUser(ctx context.Context, reservationID uint64) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.resUser[reservationID], nil
}

func (s *memStore) Credentials(ctx context.Context, spaceID uint64) (*model.GatewayIntegration, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    gi, ok := s.creds[spaceID]
    if !ok {
        return nil, ErrNotFound
    }
    cp := *gi
    return &cp, nil
}

func (s *memStore) ClearCredentials(ctx context.Context, spaceID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.clearCalls++
    s.creds[spaceID] = &model.GatewayIntegration{SpaceID: spaceID}
    return nil
}

// fakeGateway scripts upstream responses.
type fakeGateway struct {
    mu      sync.Mutex
    status  string
    err     error
    calls   int
    revoked []string
    revErr  error
}

func (g *fakeGateway) QueryPaymentStatus(ctx context.Context, externalTxID string) (string, []byte, error) {
    g.mu.Lock()
    defer g.mu.Unlock()
    g.calls++
    if g.err != nil {
        return "", nil, g.err
    }
    return g.status, []byte(`{"status":"` + g.status + `"}`), nil
}

func (g *fakeGateway) RevokeToken(ctx context.Context, accessToken string) error {
    g.mu.Lock()
    defer g.mu.Unlock()
    g.revoked = append(g.revoked, accessToken)
    return g.revErr
}

type recordingNotifier struct {
    mu     sync.Mutex
    events []Event
}

func (n *recordingNotifier) Notify(ctx context.Context, ev Event) {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.events = append(n.events, ev)
}

func (n *recordingNotifier) count() int {
    n.mu.Lock()
    defer n.mu.Unlock()
    return len(n.events)
}

func quietLogger() *logrus.Logger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func strPtr(s string) *string { return &s }

func pendingPix(resID uint64, txID string) model.Payment {
    return model.Payment{
        ID:            resID * 10,
        ReservationID: resID,
        Method:        model.MethodPix,
        Status:        model.PaymentPending,
        ExternalTxID:  strPtr(txID),
    }
}

func TestCheckStatusTerminalSkipsGateway(t *testing.T) {
    store := newMemStore()
    gw := &fakeGateway{status: "PAID"}
    p := pendingPix(1, "tx-1")
    p.Status = model.PaymentApproved
    store.addPayment(p)

    coord := New(store, gw, store, nil, quietLogger())
    got, err := coord.CheckStatus(context.Background(), 1)
    if err != nil {
        t.Fatalf("CheckStatus: %v", err)
    }
    if got != model.PaymentApproved {
        t.Fatalf("status = %q, want APPROVED", got)
    }
    if gw.calls != 0 {
        t.Fatalf("gateway queried %d times for a terminal payment", gw.calls)
    }
}

func TestCheckStatusGatewayDownReturnsPersisted(t *testing.T) {
    store := newMemStore()
    gw := &fakeGateway{err: errors.New("connection refused")}
    store.addPayment(pendingPix(1, "tx-1"))

    coord := New(store, gw, store, nil, quietLogger())
    got, err := coord.CheckStatus(context.Background(), 1)
    if err != nil {
        t.Fatalf("gateway outage must not surface as an error, got %v", err)
    }
    if got != model.PaymentPending {
        t.Fatalf("status = %q, want PENDING", got)
    }
}

func TestCheckStatusAppliesApproval(t *testing.T) {
    store := newMemStore()
    gw := &fakeGateway{status: "PAID"}
    store.addPayment(pendingPix(1, "tx-1"))
    notifier := &recordingNotifier{}

    coord := New(store, gw, store, notifier, quietLogger())
    got, err := coord.CheckStatus(context.Background(), 1)
    if err != nil {
        t.Fatalf("CheckStatus: %v", err)
    }
    if got != model.PaymentApproved {
        t.Fatalf("status = %q, want APPROVED", got)
    }
    if rs := store.resStatus[1]; rs != model.ReservationConfirmed {
        t.Fatalf("reservation status = %q, want CONFIRMED", rs)
    }
    if notifier.count() != 1 {
        t.Fatalf("events = %d, want 1", notifier.count())
    }
}

func TestCheckStatusCardNeverPolls(t *testing.T) {
    store := newMemStore()
    gw := &fakeGateway{status: "PAID"}
    p := pendingPix(1, "tx-1")
    p.Method = model.MethodCreditCard
    store.addPayment(p)

    coord := New(store, gw, store, nil, quietLogger())
    got, err := coord.CheckStatus(context.Background(), 1)
    if err != nil || got != model.PaymentPending {
        t.Fatalf("got (%q, %v), want (PENDING, nil)", got, err)
    }
    if gw.calls != 0 {
        t.Fatalf("card payments must not poll the gateway, %d calls", gw.calls)
    }
}

func TestApplyGatewayStatusIdempotent(t *testing.T) {
    store := newMemStore()
    store.addPayment(pendingPix(1, "tx-1"))
    notifier := &recordingNotifier{}
    coord := New(store, &fakeGateway{}, store, notifier, quietLogger())

    for i := 0; i < 3; i++ {
        got, err := coord.ApplyGatewayStatus(context.Background(), "tx-1", "APPROVED", nil)
        if err != nil {
            t.Fatalf("apply #%d: %v", i+1, err)
        }
        if got != model.PaymentApproved {
            t.Fatalf("apply #%d: status = %q, want APPROVED", i+1, got)
        }
    }
    if notifier.count() != 1 {
        t.Fatalf("replayed webhook produced %d events, want 1", notifier.count())
    }
}

func TestApplyGatewayStatusConflictAfterTerminal(t *testing.T) {
    store := newMemStore()
    store.addPayment(pendingPix(1, "tx-1"))
    coord := New(store, &fakeGateway{}, store, nil, quietLogger())

    if _, err := coord.ApplyGatewayStatus(context.Background(), "tx-1", "APPROVED", nil); err != nil {
        t.Fatalf("first apply: %v", err)
    }
    // A contradictory report after the terminal state is discarded and
    // the persisted status wins.
    got, err := coord.ApplyGatewayStatus(context.Background(), "tx-1", "REJECTED", nil)
    if err != nil {
        t.Fatalf("second apply: %v", err)
    }
    if got != model.PaymentApproved {
        t.Fatalf("status = %q, want APPROVED to stand", got)
    }
}

func TestApplyGatewayStatusUnknownVocabulary(t *testing.T) {
    store := newMemStore()
    store.addPayment(pendingPix(1, "tx-1"))
    coord := New(store, &fakeGateway{}, store, nil, quietLogger())

    if _, err := coord.ApplyGatewayStatus(context.Background(), "tx-1", "SOMETHING_NEW", nil); !errors.Is(err, ErrValidation) {
        t.Fatalf("err = %v, want ErrValidation", err)
    }
}

func TestConcurrentApprovalSingleWinner(t *testing.T) {
    store := newMemStore()
    store.addPayment(pendingPix(1, "tx-1"))
    notifier := &recordingNotifier{}
    coord := New(store, &fakeGateway{}, store, notifier, quietLogger())

    const writers = 8
    var wg sync.WaitGroup
    results := make([]string, writers)
    errs := make([]error, writers)
    for i := 0; i < writers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            results[i], errs[i] = coord.ApplyGatewayStatus(context.Background(), "tx-1", "APPROVED", nil)
        }(i)
    }
    wg.Wait()

    for i := 0; i < writers; i++ {
        if errs[i] != nil {
            t.Fatalf("writer %d: %v", i, errs[i])
        }
        if results[i] != model.PaymentApproved {
            t.Fatalf("writer %d saw %q, want APPROVED", i, results[i])
        }
    }
    if notifier.count() != 1 {
        t.Fatalf("%d writers produced %d events, want exactly 1", writers, notifier.count())
    }
    if rs := store.resStatus[1]; rs != model.ReservationConfirmed {
        t.Fatalf("reservation status = %q, want CONFIRMED", rs)
    }
}

func TestPollUntilResolvedTimeout(t *testing.T) {
    store := newMemStore()
    p := pendingPix(1, "tx-1")
    p.ExternalTxID = nil // nothing to poll upstream, stays PENDING
    store.addPayment(p)
    coord := New(store, &fakeGateway{}, store, nil, quietLogger())

    start := time.Now()
    _, err := coord.PollUntilResolved(context.Background(), 1, 10*time.Millisecond, 80*time.Millisecond)
    if !errors.Is(err, ErrPollTimeout) {
        t.Fatalf("err = %v, want ErrPollTimeout", err)
    }
    if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
        t.Fatalf("returned after %v, before the ceiling", elapsed)
    }
}

func TestPollUntilResolvedObservesWebhook(t *testing.T) {
    store := newMemStore()
    store.addPayment(pendingPix(1, "tx-1"))
    gw := &fakeGateway{status: "WAITING"}
    coord := New(store, gw, store, nil, quietLogger())

    // Resolve out of band mid-poll, as a webhook would.
    go func() {
        time.Sleep(30 * time.Millisecond)
        if _, err := coord.ApplyGatewayStatus(context.Background(), "tx-1", "REJECTED", nil); err != nil {
            t.Errorf("apply: %v", err)
        }
    }()

    got, err := coord.PollUntilResolved(context.Background(), 1, 10*time.Millisecond, 2*time.Second)
    if err != nil {
        t.Fatalf("PollUntilResolved: %v", err)
    }
    if got != model.PaymentRejected {
        t.Fatalf("status = %q, want REJECTED", got)
    }
    if rs := store.resStatus[1]; rs != model.ReservationCancelled {
        t.Fatalf("reservation status = %q, want CANCELLED", rs)
    }
}

func TestPollUntilResolvedContextCancel(t *testing.T) {
    store := newMemStore()
    p := pendingPix(1, "tx-1")
    p.ExternalTxID = nil
    store.addPayment(p)
    coord := New(store, &fakeGateway{}, store, nil, quietLogger())

    ctx, cancel := context.WithCancel(context.Background())
    go func() {
        time.Sleep(20 * time.Millisecond)
        cancel()
    }()
    _, err := coord.PollUntilResolved(ctx, 1, 10*time.Millisecond, 5*time.Second)
    if !errors.Is(err, context.Canceled) {
        t.Fatalf("err = %v, want context.Canceled", err)
    }
}

func TestPollUntilResolvedRejectsBadKnobs(t *testing.T) {
    coord := New(newMemStore(), &fakeGateway{}, newMemStore(), nil, quietLogger())
    if _, err := coord.PollUntilResolved(context.Background(), 1, 0, time.Second); !errors.Is(err, ErrValidation) {
        t.Fatalf("zero interval: err = %v, want ErrValidation", err)
    }
    if _, err := coord.PollUntilResolved(context.Background(), 1, time.Second, 0); !errors.Is(err, ErrValidation) {
        t.Fatalf("zero timeout: err = %v, want ErrValidation", err)
    }
}

func TestRefundLifecycle(t *testing.T) {
    store := newMemStore()
    p := pendingPix(1, "tx-1")
    p.Status = model.PaymentApproved
    store.addPayment(p)
    notifier := &recordingNotifier{}
    coord := New(store, &fakeGateway{}, store, notifier, quietLogger())

    got, err := coord.Refund(context.Background(), 1)
    if err != nil {
        t.Fatalf("Refund: %v", err)
    }
    if got != model.PaymentRefunded {
        t.Fatalf("status = %q, want REFUNDED", got)
    }
    if notifier.count() != 1 {
        t.Fatalf("events = %d, want 1", notifier.count())
    }

    // Second refund is an idempotent success, no extra event.
    got, err = coord.Refund(context.Background(), 1)
    if err != nil || got != model.PaymentRefunded {
        t.Fatalf("repeat refund = (%q, %v), want (REFUNDED, nil)", got, err)
    }
    if notifier.count() != 1 {
        t.Fatalf("repeat refund produced an extra event")
    }
}

func TestRefundRequiresApproved(t *testing.T) {
    store := newMemStore()
    store.addPayment(pendingPix(1, "tx-1")) // still PENDING
    coord := New(store, &fakeGateway{}, store, nil, quietLogger())

    got, err := coord.Refund(context.Background(), 1)
    if !errors.Is(err, ErrConflict) {
        t.Fatalf("err = %v, want ErrConflict", err)
    }
    if got != model.PaymentPending {
        t.Fatalf("conflict must report persisted status, got %q", got)
    }
}

func TestRefundUnknownReservation(t *testing.T) {
    coord := New(newMemStore(), &fakeGateway{}, newMemStore(), nil, quietLogger())
    if _, err := coord.Refund(context.Background(), 404); !errors.Is(err, ErrNotFound) {
        t.Fatalf("err = %v, want ErrNotFound", err)
    }
}

func TestDisconnectClearsEvenWhenRevokeFails(t *testing.T) {
    store := newMemStore()
    store.creds[7] = &model.GatewayIntegration{SpaceID: 7, AccessToken: "tok-7", Integrated: true}
    gw := &fakeGateway{revErr: errors.New("upstream 500")}
    coord := New(store, gw, store, nil, quietLogger())

    if err := coord.DisconnectGateway(context.Background(), 7); err != nil {
        t.Fatalf("DisconnectGateway: %v", err)
    }
    if len(gw.revoked) != 1 || gw.revoked[0] != "tok-7" {
        t.Fatalf("revoke not attempted: %v", gw.revoked)
    }
    if store.clearCalls != 1 {
        t.Fatalf("credentials not cleared after failed revoke")
    }
    if gi := store.creds[7]; gi.AccessToken != "" || gi.Integrated {
        t.Fatalf("credentials partially cleared: %+v", gi)
    }
}

func TestDisconnectNeverConnected(t *testing.T) {
    store := newMemStore()
    gw := &fakeGateway{}
    coord := New(store, gw, store, nil, quietLogger())

    if err := coord.DisconnectGateway(context.Background(), 99); err != nil {
        t.Fatalf("disconnecting an unconnected space must be a no-op success, got %v", err)
    }
    if len(gw.revoked) != 0 {
        t.Fatalf("revoke attempted with no stored token")
    }
}

func TestNormalizeVocabulary(t *testing.T) {
    cases := map[string]string{
        "APPROVED":  model.PaymentApproved,
        "paid":      model.PaymentApproved,
        "Succeeded": model.PaymentApproved,
        "REJECTED":  model.PaymentRejected,
        "canceled":  model.PaymentRejected,
        "EXPIRED":   model.PaymentRejected,
        "pending":   model.PaymentPending,
        "CREATED":   model.PaymentPending,
        "bogus":     "",
    }
    for in, want := range cases {
        if got := normalize(in); got != want {
            t.Errorf("normalize(%q) = %q, want %q", in, got, want)
        }
    }
}
