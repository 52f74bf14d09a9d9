package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestGatewayClearNullsEverythingInOneStatement(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewGatewayRepo(db)

    // Single UPDATE touching every credential field plus the flag.
    mock.ExpectExec("UPDATE gateway_integrations\\s+SET access_token = '', refresh_token = '', token_expiry = NULL, integrated = 0").
        WithArgs(uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    if err := repo.Clear(context.Background(), 7); err != nil {
        t.Fatalf("Clear: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestGatewayClearIdempotent(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewGatewayRepo(db)

    // No row for the space: still a success.
    mock.ExpectExec("UPDATE gateway_integrations").
        WithArgs(uint64(9)).
        WillReturnResult(sqlmock.NewResult(0, 0))

    if err := repo.Clear(context.Background(), 9); err != nil {
        t.Fatalf("clearing a disconnected space must be a no-op success: %v", err)
    }
}

func TestGatewayGetNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()
    repo := NewGatewayRepo(db)

    mock.ExpectQuery("SELECT space_id, access_token").
        WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"space_id", "access_token", "refresh_token", "token_expiry", "integrated", "updated_at"}))

    if _, err := repo.Get(context.Background(), 1); !errors.Is(err, ErrIntegrationNotFound) {
        t.Fatalf("err = %v, want ErrIntegrationNotFound", err)
    }
}
