package authz

import (
	"context"

	"github.com/eventbond/eventbond/internal/shared"
)

// Resource kinds known to the ownership lookup.
const (
	KindUser    = "user"
	KindBooking = "booking"
)

// OwnerLookup resolves the owning user of a resource. Implementations return
// shared.ErrNotFound when the resource does not exist; absence of a resource
// is never evidence of ownership.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, kind string, id int64) (int64, error)
}

// OwnerFunc resolves ownership for a single resource kind.
type OwnerFunc func(ctx context.Context, id int64) (int64, error)

// OwnerRegistry dispatches ownership lookups by resource kind.
type OwnerRegistry map[string]OwnerFunc

// OwnerOf implements OwnerLookup.
func (r OwnerRegistry) OwnerOf(ctx context.Context, kind string, id int64) (int64, error) {
	fn, ok := r[kind]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return fn(ctx, id)
}
