package app

import (
	"github.com/eventbond/eventbond/internal/authz"
)

// NewRuleset builds the static endpoint-to-rule table the authorizer
// enforces. Every guarded route must have an entry here; Guard panics at
// mount time otherwise.
func NewRuleset() authz.Ruleset {
	member := []authz.Policy{authz.RequireRoles(authz.RoleUser, authz.RoleAdmin)}
	admin := []authz.Policy{authz.RequireRoles(authz.RoleAdmin)}
	// Ownership rules carry only the owner policy: membership would allow
	// any authenticated user before ownership is ever checked.
	ownerOrAdmin := []authz.Policy{authz.OwnerOrAdmin{}}

	return authz.Ruleset{
		"auth.me": {RequireCredential: true, Policies: member},

		"users.list": {RequireCredential: true, Policies: admin},
		"users.get":  {RequireCredential: true, Policies: admin},
		// Anyone may register; requesting the admin role is gated in the
		// handler once the body is decoded.
		"users.create":       {Policies: []authz.Policy{authz.ConditionalAdminGate{}}},
		"users.update":       {RequireCredential: true, Policies: ownerOrAdmin, ResourceKind: authz.KindUser},
		"users.delete":       {RequireCredential: true, Policies: ownerOrAdmin, ResourceKind: authz.KindUser},
		"users.admin_update": {RequireCredential: true, Policies: admin},
		"users.admin_delete": {RequireCredential: true, Policies: admin},

		"events.list":   {RequireCredential: true, Policies: member},
		"events.search": {RequireCredential: true, Policies: member},
		"events.get":    {RequireCredential: true, Policies: member},
		"events.create": {RequireCredential: true, Policies: admin},
		"events.update": {RequireCredential: true, Policies: admin},
		"events.delete": {RequireCredential: true, Policies: admin},

		"images.upload":  {RequireCredential: true, Policies: admin},
		"images.promote": {RequireCredential: true, Policies: admin},
		"images.delete":  {RequireCredential: true, Policies: admin},
		"images.list":    {RequireCredential: true, Policies: member},

		"bookings.create":     {RequireCredential: true, Policies: member},
		"bookings.list_own":   {RequireCredential: true, Policies: member},
		"bookings.list":       {RequireCredential: true, Policies: admin},
		"bookings.get":        {RequireCredential: true, Policies: admin},
		"bookings.remove":     {RequireCredential: true, Policies: admin},
		"bookings.remove_own": {RequireCredential: true, Policies: ownerOrAdmin, ResourceKind: authz.KindBooking},

		// Category browsing is public.
		"categories.list":   {},
		"categories.get":    {},
		"categories.create": {RequireCredential: true, Policies: admin},
		"categories.delete": {RequireCredential: true, Policies: admin},
	}
}
