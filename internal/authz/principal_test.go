package authz

import (
	"testing"
	"time"
)

func TestIssueResolveRoundTrip(t *testing.T) {
	resolver := NewResolver("secret", time.Hour)
	credential, err := resolver.Issue(42, RoleAdmin)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	principal, err := resolver.Resolve(credential)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if principal.UserID != 42 {
		t.Fatalf("expected user 42 got %d", principal.UserID)
	}
	if principal.Role != RoleAdmin {
		t.Fatalf("expected admin role got %q", principal.Role)
	}
	if !principal.IsAdmin() {
		t.Fatalf("expected IsAdmin true")
	}
}

func TestResolveExpiredCredential(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	resolver := NewResolver("secret", time.Hour, WithClock(func() time.Time { return clock }))

	credential, err := resolver.Issue(7, RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Still valid one second before expiry.
	clock = issued.Add(time.Hour - time.Second)
	if _, err := resolver.Resolve(credential); err != nil {
		t.Fatalf("credential should still be valid: %v", err)
	}

	// Expiry is exclusive: a credential checked at its exact expiry fails.
	clock = issued.Add(time.Hour)
	if _, err := resolver.Resolve(credential); err != ErrAuthenticationFailed {
		t.Fatalf("expected ErrAuthenticationFailed got %v", err)
	}
}

func TestResolveRejectsTamperedCredential(t *testing.T) {
	resolver := NewResolver("secret", time.Hour)
	credential, err := resolver.Issue(7, RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	other := NewResolver("different-secret", time.Hour)
	if _, err := other.Resolve(credential); err != ErrAuthenticationFailed {
		t.Fatalf("expected ErrAuthenticationFailed got %v", err)
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	resolver := NewResolver("secret", time.Hour)
	for _, credential := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := resolver.Resolve(credential); err != ErrAuthenticationFailed {
			t.Fatalf("credential %q: expected ErrAuthenticationFailed got %v", credential, err)
		}
	}
}

func TestResolveRejectsUnknownRole(t *testing.T) {
	resolver := NewResolver("secret", time.Hour)
	credential, err := resolver.Issue(7, Role("superuser"))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := resolver.Resolve(credential); err != ErrAuthenticationFailed {
		t.Fatalf("expected ErrAuthenticationFailed got %v", err)
	}
}
