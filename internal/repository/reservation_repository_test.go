package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/coworking-space-rental/internal/model"
)

func reservationRows(r model.Reservation) *sqlmock.Rows {
    rows := sqlmock.NewRows([]string{"id", "space_id", "user_id", "plan_id", "starts_at", "ends_at", "amount_cents", "status", "created_at", "updated_at"})
    var plan interface{}
    if r.PlanID != nil {
        plan = *r.PlanID
    }
    rows.AddRow(r.ID, r.SpaceID, r.UserID, plan, r.StartsAt, r.EndsAt, r.AmountCents, r.Status, time.Now(), time.Now())
    return rows
}

func TestReservationTransitionStatus(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewReservationRepo(db)

    mock.ExpectExec("UPDATE reservations SET status").
        WithArgs(model.ReservationConfirmed, uint64(3), model.ReservationPending).
        WillReturnResult(sqlmock.NewResult(0, 1))

    applied, err := repo.TransitionStatus(context.Background(), 3, model.ReservationPending, model.ReservationConfirmed)
    if err != nil || !applied {
        t.Fatalf("got (%v, %v), want (true, nil)", applied, err)
    }

    // Losing writer: status already left PENDING.
    mock.ExpectExec("UPDATE reservations SET status").
        WithArgs(model.ReservationCancelled, uint64(3), model.ReservationPending).
        WillReturnResult(sqlmock.NewResult(0, 0))

    applied, err = repo.TransitionStatus(context.Background(), 3, model.ReservationPending, model.ReservationCancelled)
    if err != nil {
        t.Fatalf("zero rows must not error: %v", err)
    }
    if applied {
        t.Fatal("zero rows must report applied=false")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestCancelByUserEnforcesOwnershipAndState(t *testing.T) {
    now := time.Now()
    base := model.Reservation{
        ID: 7, SpaceID: 2, UserID: 11,
        StartsAt: now, EndsAt: now.Add(2 * time.Hour),
        AmountCents: 5000, Status: model.ReservationPending,
    }

    t.Run("wrong user", func(t *testing.T) {
        db, mock, err := sqlmock.New()
        if err != nil {
            t.Fatalf("sqlmock: %v", err)
        }
        defer db.Close()
        repo := NewReservationRepo(db)

        mock.ExpectQuery("SELECT id, space_id, user_id").
            WithArgs(uint64(7)).
            WillReturnRows(reservationRows(base))

        if err := repo.CancelByUser(context.Background(), 7, 99); !errors.Is(err, ErrForbidden) {
            t.Fatalf("err = %v, want ErrForbidden", err)
        }
    })

    t.Run("already resolved", func(t *testing.T) {
        db, mock, err := sqlmock.New()
        if err != nil {
            t.Fatalf("sqlmock: %v", err)
        }
        defer db.Close()
        repo := NewReservationRepo(db)

        confirmed := base
        confirmed.Status = model.ReservationConfirmed
        mock.ExpectQuery("SELECT id, space_id, user_id").
            WithArgs(uint64(7)).
            WillReturnRows(reservationRows(confirmed))
        mock.ExpectExec("UPDATE reservations SET status").
            WithArgs(model.ReservationCancelled, uint64(7), model.ReservationPending).
            WillReturnResult(sqlmock.NewResult(0, 0))

        if err := repo.CancelByUser(context.Background(), 7, 11); !errors.Is(err, ErrConflict) {
            t.Fatalf("err = %v, want ErrConflict", err)
        }
    })

    t.Run("missing", func(t *testing.T) {
        db, mock, err := sqlmock.New()
        if err != nil {
            t.Fatalf("sqlmock: %v", err)
        }
        defer db.Close()
        repo := NewReservationRepo(db)

        mock.ExpectQuery("SELECT id, space_id, user_id").
            WithArgs(uint64(8)).
            WillReturnRows(sqlmock.NewRows([]string{"id", "space_id", "user_id", "plan_id", "starts_at", "ends_at", "amount_cents", "status", "created_at", "updated_at"}))

        if err := repo.CancelByUser(context.Background(), 8, 11); !errors.Is(err, ErrReservationNotFound) {
            t.Fatalf("err = %v, want ErrReservationNotFound", err)
        }
    })
}
