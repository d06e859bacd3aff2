package authz

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventbond/eventbond/internal/shared"
)

type staticOwners map[int64]int64

func (o staticOwners) OwnerOf(_ context.Context, kind string, id int64) (int64, error) {
	if kind != KindBooking {
		return 0, fmt.Errorf("unexpected kind %q", kind)
	}
	owner, ok := o[id]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return owner, nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *Resolver) {
	t.Helper()
	resolver := NewResolver("secret", time.Hour)
	rules := Ruleset{
		"admin_only": {RequireCredential: true, Policies: []Policy{RequireRoles(RoleAdmin)}},
		"member":     {RequireCredential: true, Policies: []Policy{RequireRoles(RoleUser, RoleAdmin)}},
		"owned":      {RequireCredential: true, Policies: []Policy{OwnerOrAdmin{}}, ResourceKind: KindBooking},
		"public":     {},
	}
	owners := staticOwners{10: 2}
	guard := NewAuthorizer(slog.New(slog.NewTextHandler(io.Discard, nil)), resolver, owners, rules)

	echo := func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFromContext(r.Context())
		if principal == nil {
			fmt.Fprint(w, "anonymous")
			return
		}
		fmt.Fprintf(w, "user %d", principal.UserID)
	}

	r := chi.NewRouter()
	r.With(guard.Guard("admin_only")).Get("/admin", echo)
	r.With(guard.Guard("member")).Get("/member", echo)
	r.With(guard.Guard("owned")).Delete("/owned/{id}", echo)
	r.With(guard.Guard("public")).Get("/public", echo)
	return r, resolver
}

func doRequest(t *testing.T, router http.Handler, method, target, credential string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func issue(t *testing.T, resolver *Resolver, userID int64, role Role) string {
	t.Helper()
	credential, err := resolver.Issue(userID, role)
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	return credential
}

func TestGuardRequiresCredential(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/admin", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestGuardRejectsInvalidCredential(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/admin", "bogus")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestGuardDeniesInsufficientRole(t *testing.T) {
	router, resolver := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/admin", issue(t, resolver, 2, RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestGuardAllowsSufficientRole(t *testing.T) {
	router, resolver := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/admin", issue(t, resolver, 1, RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "user 1" {
		t.Fatalf("expected principal in context, got %q", rec.Body.String())
	}
}

func TestGuardOwnership(t *testing.T) {
	router, resolver := newTestRouter(t)

	// Owner of booking 10 may remove it.
	rec := doRequest(t, router, http.MethodDelete, "/owned/10", issue(t, resolver, 2, RoleUser))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner: expected 200 got %d", rec.Code)
	}

	// Another user may not.
	rec = doRequest(t, router, http.MethodDelete, "/owned/10", issue(t, resolver, 3, RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner: expected 403 got %d", rec.Code)
	}

	// Admins bypass ownership.
	rec = doRequest(t, router, http.MethodDelete, "/owned/10", issue(t, resolver, 1, RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200 got %d", rec.Code)
	}
}

func TestGuardMissingResourceDeniesNonAdmin(t *testing.T) {
	router, resolver := newTestRouter(t)

	rec := doRequest(t, router, http.MethodDelete, "/owned/404", issue(t, resolver, 2, RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing resource got %d", rec.Code)
	}

	// Admins pass the guard; the handler is responsible for the 404.
	rec = doRequest(t, router, http.MethodDelete, "/owned/404", issue(t, resolver, 1, RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin to reach handler, got %d", rec.Code)
	}
}

func TestGuardPublicEndpoint(t *testing.T) {
	router, resolver := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/public", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("expected anonymous 200 got %d %q", rec.Code, rec.Body.String())
	}

	// An invalid credential on an optional endpoint reads as anonymous.
	rec = doRequest(t, router, http.MethodGet, "/public", "bogus")
	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("expected invalid optional credential to read anonymous, got %d %q", rec.Code, rec.Body.String())
	}

	// A valid one is still resolved.
	rec = doRequest(t, router, http.MethodGet, "/public", issue(t, resolver, 5, RoleUser))
	if rec.Body.String() != "user 5" {
		t.Fatalf("expected resolved principal, got %q", rec.Body.String())
	}
}

func TestGuardPanicsOnUnknownEndpoint(t *testing.T) {
	guard := NewAuthorizer(slog.New(slog.NewTextHandler(io.Discard, nil)), NewResolver("secret", time.Hour), staticOwners{}, Ruleset{})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown endpoint")
		}
	}()
	guard.Guard("no.such.endpoint")
}

func TestBearerCredential(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := BearerCredential(req); got != "" {
		t.Fatalf("expected empty credential got %q", got)
	}

	req.Header.Set("Authorization", "Bearer abc")
	if got := BearerCredential(req); got != "abc" {
		t.Fatalf("expected header credential got %q", got)
	}

	cookieReq := httptest.NewRequest(http.MethodGet, "/", nil)
	cookieReq.AddCookie(&http.Cookie{Name: "jwt", Value: "xyz"})
	if got := BearerCredential(cookieReq); got != "xyz" {
		t.Fatalf("expected cookie credential got %q", got)
	}
}
