package auth

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestIssueAndResolve(t *testing.T) {
	creds, err := NewCredentials("test-secret")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}

	token, expiresAt, err := creds.Issue("alice", []string{"PROCESS_SALE", "PROCESS_SALE", "VIEW_INVENTORY"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := time.Until(expiresAt); got < 9*time.Hour {
		t.Fatalf("expected ~10h expiry, got %v", got)
	}

	principal, err := creds.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if principal.Username != "alice" {
		t.Fatalf("unexpected subject: %s", principal.Username)
	}
	perms := principal.PermissionList()
	if !slices.Contains(perms, "PROCESS_SALE") || !slices.Contains(perms, "VIEW_INVENTORY") {
		t.Fatalf("permissions were not preserved: %v", perms)
	}
	if len(perms) != 2 {
		t.Fatalf("expected deduplicated permissions, got %v", perms)
	}
}

func TestResolveEmptyPermissionSet(t *testing.T) {
	creds, _ := NewCredentials("test-secret")
	token, _, err := creds.Issue("bob", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	principal, err := creds.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(principal.Permissions) != 0 {
		t.Fatalf("expected empty permission set, got %v", principal.Permissions)
	}
}

func TestResolveExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	creds, _ := NewCredentials("test-secret", WithClock(func() time.Time { return clock() }))

	token, _, err := creds.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = func() time.Time { return now.Add(DefaultTokenTTL + time.Minute) }
	if _, err := creds.Resolve(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// All credential failures collapse to ErrInvalidToken for the boundary.
	if _, err := creds.Resolve(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken match, got %v", err)
	}
}

func TestResolveBadSignature(t *testing.T) {
	issuing, _ := NewCredentials("secret-one")
	verifying, _ := NewCredentials("secret-two")

	token, _, err := issuing.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifying.Resolve(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestResolveMalformed(t *testing.T) {
	creds, _ := NewCredentials("test-secret")
	for _, raw := range []string{"", "not-a-token", "a.b"} {
		if _, err := creds.Resolve(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Resolve(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
