package auth

import (
	"testing"
	"time"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	iss := NewIssuer("test-secret")

	token, err := iss.Issue("agent-1", "kim")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AgentID != "agent-1" || claims.Username != "kim" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	iss := NewIssuer("test-secret")
	other := NewIssuer("other-secret")

	token, _ := iss.Issue("agent-1", "kim")

	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Fatalf("wrong secret: err = %v, want ErrInvalidToken", err)
	}
	if _, err := iss.Verify("not.a.token"); err != ErrInvalidToken {
		t.Fatalf("garbage: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	iss := &Issuer{Secret: []byte("test-secret"), TTL: -time.Minute}

	token, err := iss.Issue("agent-1", "kim")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := iss.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expired: err = %v, want ErrInvalidToken", err)
	}
}
