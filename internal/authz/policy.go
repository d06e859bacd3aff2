package authz

import "fmt"

// Effect is the outcome class of a single policy evaluation.
type Effect int

const (
	// EffectAbstain means the policy has no opinion; evaluation continues.
	EffectAbstain Effect = iota
	// EffectAllow permits the request.
	EffectAllow
	// EffectDeny rejects the request with a reason.
	EffectDeny
)

// Reason is a stable denial code surfaced to the boundary layer.
type Reason string

const (
	ReasonUnauthenticated  Reason = "unauthenticated"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonForbidden        Reason = "forbidden"
)

// Decision is the result of evaluating one policy or a whole policy list.
type Decision struct {
	Effect Effect
	Reason Reason
}

// Allowed reports whether the decision permits the request.
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Allow is the permitting decision.
func Allow() Decision {
	return Decision{Effect: EffectAllow}
}

// Deny rejects with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}

// Abstain defers to the next policy in the list.
func Abstain() Decision {
	return Decision{Effect: EffectAbstain}
}

// Err converts a denying decision into a DeniedError, or nil when allowed.
func (d Decision) Err() error {
	if d.Effect == EffectDeny {
		return &DeniedError{Reason: d.Reason}
	}
	return nil
}

// DeniedError carries the denial reason across an error boundary.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authz: denied: %s", e.Reason)
}

// ResourceContext carries the per-request facts policies may consult. OwnerID
// is resolved from the route's resource id before evaluation when an
// ownership policy is configured; it stays unset when the resource does not
// exist, which must read as "not owned by the caller".
type ResourceContext struct {
	ResourceID    int64
	HasResource   bool
	OwnerID       int64
	HasOwner      bool
	RequestedRole Role
}

// Policy is a pure request-authorization rule. Policies are configured per
// endpoint at startup and never mutated afterwards; they must be safe for
// concurrent use.
type Policy interface {
	Evaluate(p *Principal, rc ResourceContext) Decision
}

// Evaluate runs the policies in declaration order; the first non-abstaining
// decision wins. An empty policy list allows (public endpoint).
func Evaluate(p *Principal, policies []Policy, rc ResourceContext) Decision {
	for _, policy := range policies {
		if d := policy.Evaluate(p, rc); d.Effect != EffectAbstain {
			return d
		}
	}
	return Allow()
}

// RoleMembership allows principals whose role is in the configured set. An
// empty set means the endpoint declared no role restriction and allows
// unconditionally, anonymous callers included.
type RoleMembership struct {
	roles []Role
}

// RequireRoles builds a RoleMembership policy.
func RequireRoles(roles ...Role) RoleMembership {
	return RoleMembership{roles: roles}
}

// Evaluate implements Policy.
func (m RoleMembership) Evaluate(p *Principal, _ ResourceContext) Decision {
	if len(m.roles) == 0 {
		return Allow()
	}
	if p == nil {
		return Deny(ReasonUnauthenticated)
	}
	for _, role := range m.roles {
		if p.Role == role {
			return Allow()
		}
	}
	return Deny(ReasonInsufficientRole)
}

// OwnerOrAdmin allows admins unconditionally and otherwise requires the
// principal to own the addressed resource.
type OwnerOrAdmin struct{}

// Evaluate implements Policy.
func (OwnerOrAdmin) Evaluate(p *Principal, rc ResourceContext) Decision {
	if p == nil {
		return Deny(ReasonUnauthenticated)
	}
	if p.Role == RoleAdmin {
		return Allow()
	}
	if rc.HasOwner && p.UserID == rc.OwnerID {
		return Allow()
	}
	return Deny(ReasonNotOwner)
}

// ConditionalAdminGate guards account creation: anyone may create a regular
// account, but creating an admin account requires a valid admin credential.
type ConditionalAdminGate struct{}

// Evaluate implements Policy.
func (ConditionalAdminGate) Evaluate(p *Principal, rc ResourceContext) Decision {
	if rc.RequestedRole != RoleAdmin {
		return Allow()
	}
	if p.IsAdmin() {
		return Allow()
	}
	return Deny(ReasonForbidden)
}
