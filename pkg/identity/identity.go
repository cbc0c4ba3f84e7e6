// Package identity models verified callers and resolves them from bearer tokens.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of caller roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

var (
	// ErrInvalidToken indicates a bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidRole indicates a role claim outside the known set.
	ErrInvalidRole = errors.New("invalid role")
)

// ParseRole converts a claim value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Privileged reports whether the role may mutate documents without approval
// and resolve permission requests.
func (r Role) Privileged() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

// Caller is a verified actor.
type Caller struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Privileged reports whether the caller holds a privileged role.
func (c Caller) Privileged() bool {
	return c.Role.Privileged()
}

// Verifier resolves a raw bearer token into a Caller.
type Verifier interface {
	Verify(ctx context.Context, token string) (Caller, error)
}

type callerContextKey struct{}

// WithCaller returns a copy of ctx carrying the caller.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerContextKey{}).(Caller)
	return c, ok
}

func newCaller(subject, role string) (Caller, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	r, err := ParseRole(role)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Caller{UserID: id, Role: r}, nil
}
