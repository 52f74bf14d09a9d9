package utils

import (
    "testing"

    "github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"
    at, err := NewAccessToken(secret, 42, "CUSTOMER", 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }

    tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        t.Fatalf("parse issued token: %v", err)
    }
    claims := tok.Claims.(jwt.MapClaims)
    if claims["sub"].(float64) != 42 {
        t.Fatalf("sub = %v, want 42", claims["sub"])
    }
    if claims["role"] != "CUSTOMER" {
        t.Fatalf("role = %v, want CUSTOMER", claims["role"])
    }
}

func TestRefreshTokenHashing(t *testing.T) {
    rt, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(rt.Raw) != 96 {
        t.Fatalf("raw length = %d, want 96 hex chars", len(rt.Raw))
    }
    if HashRefreshRaw(rt.Raw) != HashRefreshRaw(rt.Raw) {
        t.Fatal("hash must be deterministic")
    }
    other, _ := NewRefreshToken(7)
    if rt.Raw == other.Raw {
        t.Fatal("two tokens must differ")
    }
}

func TestRandomStateUnique(t *testing.T) {
    a, err := RandomState()
    if err != nil {
        t.Fatalf("RandomState: %v", err)
    }
    b, _ := RandomState()
    if a == b {
        t.Fatal("states must be unique")
    }
    if len(a) != 48 {
        t.Fatalf("state length = %d, want 48 hex chars", len(a))
    }
}
