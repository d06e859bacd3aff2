package authz

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eventbond/eventbond/internal/shared"
)

// Rule is the static authorization configuration of one endpoint.
type Rule struct {
	// RequireCredential rejects the request with 401 before policy
	// evaluation when no valid credential is presented.
	RequireCredential bool
	// Policies are evaluated in order; first non-abstain wins.
	Policies []Policy
	// ResourceKind, when set, resolves the owner of the resource addressed
	// by the ResourceParam route parameter before evaluation.
	ResourceKind  string
	ResourceParam string
}

// Ruleset maps endpoint identifiers to their authorization rules. It is
// built once at startup and read-only afterwards.
type Ruleset map[string]Rule

// Authorizer composes the principal resolver, the policy evaluator, and the
// ownership lookup into the single check each endpoint performs before its
// handler runs. Each request gets a fresh resolution and evaluation;
// credentials can expire mid-session.
type Authorizer struct {
	logger   *slog.Logger
	resolver *Resolver
	owners   OwnerLookup
	rules    Ruleset
	denials  DenialCounter
}

// DenialCounter records denied decisions for observability.
type DenialCounter interface {
	CountDenial(reason string)
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(logger *slog.Logger, resolver *Resolver, owners OwnerLookup, rules Ruleset) *Authorizer {
	return &Authorizer{logger: logger, resolver: resolver, owners: owners, rules: rules}
}

// SetDenialCounter installs an optional counter for denied decisions.
func (a *Authorizer) SetDenialCounter(c DenialCounter) {
	a.denials = c
}

// Resolver exposes the credential resolver for login handlers.
func (a *Authorizer) Resolver() *Resolver {
	return a.resolver
}

// Guard returns middleware enforcing the named endpoint rule. Unknown
// endpoint names are a wiring bug and panic at mount time.
func (a *Authorizer) Guard(endpoint string) func(http.Handler) http.Handler {
	rule, ok := a.rules[endpoint]
	if !ok {
		panic(fmt.Sprintf("authz: no rule configured for endpoint %q", endpoint))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := a.resolvePrincipal(r, rule.RequireCredential)
			if err != nil {
				a.problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			ctx := ContextWithPrincipal(r.Context(), principal)

			rc := ResourceContext{}
			if rule.ResourceKind != "" {
				param := rule.ResourceParam
				if param == "" {
					param = "id"
				}
				id, err := strconv.ParseInt(chi.URLParamFromCtx(ctx, param), 10, 64)
				if err != nil {
					a.problem(w, http.StatusBadRequest, "Bad Request", "invalid resource id")
					return
				}
				rc.ResourceID = id
				rc.HasResource = true
				ownerID, err := a.owners.OwnerOf(ctx, rule.ResourceKind, id)
				switch {
				case err == nil:
					rc.OwnerID = ownerID
					rc.HasOwner = true
				case errors.Is(err, shared.ErrNotFound):
					// Leave the owner unset; ownership policies deny.
				default:
					a.logger.Error("authz owner lookup",
						slog.String("endpoint", endpoint),
						slog.String("kind", rule.ResourceKind),
						slog.Int64("id", id),
						slog.Any("error", err))
					a.problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
			}

			if d := Evaluate(principal, rule.Policies, rc); !d.Allowed() {
				a.deny(w, d)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize evaluates the named endpoint rule outside the middleware chain.
// Handlers use it when the resource context depends on the decoded request
// body, such as the admin gate on account creation.
func (a *Authorizer) Authorize(principal *Principal, endpoint string, rc ResourceContext) Decision {
	rule, ok := a.rules[endpoint]
	if !ok {
		return Deny(ReasonForbidden)
	}
	return Evaluate(principal, rule.Policies, rc)
}

func (a *Authorizer) resolvePrincipal(r *http.Request, required bool) (*Principal, error) {
	credential := BearerCredential(r)
	if credential == "" {
		if required {
			return nil, ErrAuthenticationFailed
		}
		return nil, nil
	}
	principal, err := a.resolver.Resolve(credential)
	if err != nil {
		if required {
			return nil, err
		}
		// An invalid optional credential is treated as anonymous.
		return nil, nil
	}
	return principal, nil
}

// BearerCredential extracts the raw credential from the Authorization header
// or, failing that, the jwt cookie. The empty string means anonymous.
func BearerCredential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}
	return ""
}

func (a *Authorizer) deny(w http.ResponseWriter, d Decision) {
	if a.denials != nil {
		a.denials.CountDenial(string(d.Reason))
	}
	if d.Reason == ReasonUnauthenticated {
		a.problem(w, http.StatusUnauthorized, "Unauthorized", string(d.Reason))
		return
	}
	a.problem(w, http.StatusForbidden, "Forbidden", string(d.Reason))
}

func (a *Authorizer) problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  title,
		"status": status,
		"detail": detail,
	})
}
