package gateway

import "testing"

func TestSignAndVerify(t *testing.T) {
    secret := "whsec_test"
    body := []byte(`{"external_tx_id":"tx-1","status":"APPROVED"}`)

    sig := SignPayload(secret, body)
    if sig == "" {
        t.Fatal("empty signature")
    }
    if !VerifySignature(secret, body, sig) {
        t.Fatal("valid signature rejected")
    }
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
    secret := "whsec_test"
    body := []byte(`{"external_tx_id":"tx-1","status":"APPROVED"}`)
    sig := SignPayload(secret, body)

    tampered := []byte(`{"external_tx_id":"tx-1","status":"REJECTED"}`)
    if VerifySignature(secret, tampered, sig) {
        t.Fatal("tampered body accepted")
    }
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
    body := []byte(`{"status":"APPROVED"}`)
    sig := SignPayload("whsec_a", body)
    if VerifySignature("whsec_b", body, sig) {
        t.Fatal("signature from different secret accepted")
    }
}

func TestVerifyRejectsGarbage(t *testing.T) {
    body := []byte(`{}`)
    for _, sig := range []string{"", "deadbeef", "not-hex!"} {
        if VerifySignature("whsec_test", body, sig) {
            t.Fatalf("garbage signature %q accepted", sig)
        }
    }
}
