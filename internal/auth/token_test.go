package auth

import (
	"context"
	"testing"
	"time"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(7, "alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("expected user id 7, got %d", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("expected email to round-trip, got %q", claims.Email)
	}
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := &TokenService{secret: []byte("test-secret"), ttl: -2 * time.Hour}

	token, err := svc.Issue(7, "alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenService_RejectsTamperedAndForeign(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	other := NewTokenService("other-secret", time.Hour)

	token, err := svc.Issue(7, "alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.Verify(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}

	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}

	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("expected no identity on a fresh context")
	}

	ctx = WithIdentity(ctx, 42)
	id, ok := IdentityFromContext(ctx)
	if !ok || id != 42 {
		t.Fatalf("expected identity 42, got %d (ok=%v)", id, ok)
	}
}
