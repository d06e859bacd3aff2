// Package authz decides, per request, whether an authenticated principal may
// perform an action. It resolves signed bearer credentials into principals and
// evaluates static per-endpoint policy lists against them.
package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthenticationFailed indicates an absent, unverifiable, or expired credential.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Role is the coarse permission level carried by a credential.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated actor derived from a verified credential.
// It is immutable for the lifetime of a request and never persisted.
type Principal struct {
	UserID    int64
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Resolver verifies and issues signed credentials. It is a pure function of
// its inputs, the configured secret, and the clock; safe for concurrent use.
type Resolver struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver constructs a Resolver with the shared signing secret and the
// lifetime applied to issued credentials.
func NewResolver(secret string, ttl time.Duration, opts ...ResolverOption) *Resolver {
	r := &Resolver{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Issue signs a new credential for the given user.
func (r *Resolver) Issue(userID int64, role Role) (string, error) {
	now := r.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	})
	signed, err := token.SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("authz: sign credential: %w", err)
	}
	return signed, nil
}

// Resolve verifies the credential and returns the principal it encodes.
// The payload is trusted verbatim once the signature and expiry check out;
// no user store is consulted.
func (r *Resolver) Resolve(credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrAuthenticationFailed
	}

	var payload claims
	token, err := jwt.ParseWithClaims(credential, &payload,
		func(t *jwt.Token) (any, error) { return r.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrAuthenticationFailed
	}

	role := Role(payload.Role)
	if !role.Valid() {
		return nil, ErrAuthenticationFailed
	}

	p := &Principal{UserID: payload.UserID, Role: role}
	if payload.IssuedAt != nil {
		p.IssuedAt = payload.IssuedAt.Time
	}
	if payload.ExpiresAt != nil {
		p.ExpiresAt = payload.ExpiresAt.Time
	}
	return p, nil
}

// TTL exposes the configured credential lifetime.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}
