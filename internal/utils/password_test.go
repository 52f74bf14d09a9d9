package utils

import "testing"

func TestPasswordHashAndVerify(t *testing.T) {
    hash, err := HashPassword("s3cret", 4) // low cost keeps the test fast
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "s3cret") {
        t.Fatal("correct password rejected")
    }
    if VerifyPassword(hash, "wrong") {
        t.Fatal("wrong password accepted")
    }
}
