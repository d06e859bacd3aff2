package users

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventbond/eventbond/internal/authz"
)

func newTestHandler(t *testing.T) (http.Handler, *authz.Resolver) {
	t.Helper()
	resolver := authz.NewResolver("secret", time.Hour)
	admin := []authz.Policy{authz.RequireRoles(authz.RoleAdmin)}
	rules := authz.Ruleset{
		"users.list":         {RequireCredential: true, Policies: admin},
		"users.get":          {RequireCredential: true, Policies: admin},
		"users.create":       {Policies: []authz.Policy{authz.ConditionalAdminGate{}}},
		"users.update":       {RequireCredential: true, Policies: []authz.Policy{authz.OwnerOrAdmin{}}, ResourceKind: authz.KindUser},
		"users.delete":       {RequireCredential: true, Policies: []authz.Policy{authz.OwnerOrAdmin{}}, ResourceKind: authz.KindUser},
		"users.admin_update": {RequireCredential: true, Policies: admin},
		"users.admin_delete": {RequireCredential: true, Policies: admin},
	}
	repo := &fakeRepo{}
	owners := authz.OwnerRegistry{
		authz.KindUser: func(_ context.Context, id int64) (int64, error) { return id, nil },
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := authz.NewAuthorizer(logger, resolver, owners, rules)
	handler := NewHandler(logger, NewService(repo), guard)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, resolver
}

func postJSON(t *testing.T, router http.Handler, target, body, credential string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserAnonymous(t *testing.T) {
	router, _ := newTestHandler(t)
	rec := postJSON(t, router, "/createUser",
		`{"username":"ana","email":"ana@example.com","password":"password123"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAdminAnonymousForbidden(t *testing.T) {
	router, _ := newTestHandler(t)
	rec := postJSON(t, router, "/createUser",
		`{"username":"eve","email":"eve@example.com","password":"password123","role":"admin"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAdminByUserForbidden(t *testing.T) {
	router, resolver := newTestHandler(t)
	credential, err := resolver.Issue(2, authz.RoleUser)
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	rec := postJSON(t, router, "/createUser",
		`{"username":"eve","email":"eve@example.com","password":"password123","role":"admin"}`, credential)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAdminByAdmin(t *testing.T) {
	router, resolver := newTestHandler(t)
	credential, err := resolver.Issue(1, authz.RoleAdmin)
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	rec := postJSON(t, router, "/createUser",
		`{"username":"eve","email":"eve@example.com","password":"password123","role":"admin"}`, credential)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateUserValidation(t *testing.T) {
	router, _ := newTestHandler(t)
	rec := postJSON(t, router, "/createUser",
		`{"username":"ana","email":"not-an-email","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}
