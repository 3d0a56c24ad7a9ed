package auth

import (
	"context"
	"strconv"
)

// Scope levels carried in the token. Lower values are more privileged.
const (
	ScopeAdmin   = "1"
	ScopeManager = "2"
	ScopeMember  = "3"
)

type Capability string

const (
	CapabilityReserve   Capability = "reserve"
	CapabilityDeleteAny Capability = "delete_any"
)

type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Scope       string `json:"scope"`
}

// Authorizer decides whether an identity holds a capability.
type Authorizer interface {
	Authorize(ctx context.Context, id Identity, capability Capability) bool
}

// ScopeAuthorizer grants capabilities by comparing the identity scope with the
// minimum scope each capability requires.
type ScopeAuthorizer struct{}

var requiredScope = map[Capability]int{
	CapabilityReserve:   3,
	CapabilityDeleteAny: 2,
}

func (ScopeAuthorizer) Authorize(_ context.Context, id Identity, capability Capability) bool {
	if id.ID == "" {
		return false
	}
	required, ok := requiredScope[capability]
	if !ok {
		return false
	}
	level, err := strconv.Atoi(id.Scope)
	if err != nil || level < 1 {
		return false
	}
	return level <= required
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
