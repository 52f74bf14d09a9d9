package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/coworking-space-rental/internal/model"
)

func paymentRows(t *testing.T, p model.Payment) *sqlmock.Rows {
    t.Helper()
    rows := sqlmock.NewRows([]string{"id", "reservation_id", "method", "status", "external_tx_id", "raw_payload", "created_at", "updated_at"})
    var tx interface{}
    if p.ExternalTxID != nil {
        tx = *p.ExternalTxID
    }
    rows.AddRow(p.ID, p.ReservationID, p.Method, p.Status, tx, p.RawPayload, time.Now(), time.Now())
    return rows
}

func TestTransitionStatusApplies(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    mock.ExpectExec("UPDATE payments SET status").
        WithArgs(model.PaymentApproved, uint64(10), model.PaymentPending).
        WillReturnResult(sqlmock.NewResult(0, 1))

    applied, err := repo.TransitionStatus(context.Background(), 10, model.PaymentPending, model.PaymentApproved, nil)
    if err != nil {
        t.Fatalf("TransitionStatus: %v", err)
    }
    if !applied {
        t.Fatal("one affected row must report applied=true")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestTransitionStatusZeroRowsIsNotAnError(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    // Row no longer PENDING: the conditional update matches nothing.
    mock.ExpectExec("UPDATE payments SET status").
        WithArgs(model.PaymentRejected, uint64(10), model.PaymentPending).
        WillReturnResult(sqlmock.NewResult(0, 0))

    applied, err := repo.TransitionStatus(context.Background(), 10, model.PaymentPending, model.PaymentRejected, nil)
    if err != nil {
        t.Fatalf("zero affected rows must not be an error, got %v", err)
    }
    if applied {
        t.Fatal("zero affected rows must report applied=false")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestTransitionStatusStoresPayload(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    raw := []byte(`{"status":"PAID"}`)
    mock.ExpectExec("UPDATE payments SET status = \\?, raw_payload").
        WithArgs(model.PaymentApproved, raw, uint64(10), model.PaymentPending).
        WillReturnResult(sqlmock.NewResult(0, 1))

    applied, err := repo.TransitionStatus(context.Background(), 10, model.PaymentPending, model.PaymentApproved, raw)
    if err != nil || !applied {
        t.Fatalf("got (%v, %v), want (true, nil)", applied, err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestCreateTxRejectsOpenPayment(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
    mock.ExpectRollback()

    tx, err := db.BeginTx(context.Background(), nil)
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    p := &model.Payment{ReservationID: 5, Method: model.MethodPix}
    if err := repo.CreateTx(context.Background(), tx, p); !errors.Is(err, ErrOpenPayment) {
        t.Fatalf("err = %v, want ErrOpenPayment", err)
    }
    _ = tx.Rollback()
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestCreateTxInsertsPending(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    created := model.Payment{ID: 42, ReservationID: 5, Method: model.MethodPix, Status: model.PaymentPending}

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
    mock.ExpectExec("INSERT INTO payments").
        WithArgs(uint64(5), model.MethodPix).
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectQuery("SELECT id, reservation_id, method, status").
        WithArgs(uint64(42)).
        WillReturnRows(paymentRows(t, created))
    mock.ExpectCommit()

    tx, err := db.BeginTx(context.Background(), nil)
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    p := &model.Payment{ReservationID: 5, Method: model.MethodPix}
    if err := repo.CreateTx(context.Background(), tx, p); err != nil {
        t.Fatalf("CreateTx: %v", err)
    }
    if err := tx.Commit(); err != nil {
        t.Fatalf("commit: %v", err)
    }
    if p.ID != 42 || p.Status != model.PaymentPending {
        t.Fatalf("payment = %+v, want id 42 status PENDING", p)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestLatestByReservationNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    mock.ExpectQuery("SELECT id, reservation_id, method, status").
        WithArgs(uint64(404)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "method", "status", "external_tx_id", "raw_payload", "created_at", "updated_at"}))

    if _, err := repo.LatestByReservation(context.Background(), 404); !errors.Is(err, ErrPaymentNotFound) {
        t.Fatalf("err = %v, want ErrPaymentNotFound", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}
