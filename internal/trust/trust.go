// Package trust reads the identity the gateway injected into an upstream request.
//
// Services behind the gateway never see or parse credentials. Envoy strips client-supplied
// x-user-email and x-user-roles and replaces them with the authz decision, so the headers
// are authoritative only when the service is reachable through the gateway alone.
package trust

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// Identity is the caller as asserted by the gateway. Email is empty for guests.
type Identity struct {
	Email string
	Roles []string
}

// FromHeaders reads the trusted header pair. Roles are split on "," without trimming.
func FromHeaders(h http.Header) Identity {
	id := Identity{Email: h.Get(constants.HeaderUserEmail)}
	if roles := h.Get(constants.HeaderUserRoles); roles != "" {
		id.Roles = strings.Split(roles, constants.RoleSeparator)
	}
	return id
}

// Authenticated reports whether the gateway resolved an email for the caller.
func (id Identity) Authenticated() bool {
	return id.Email != ""
}

// HasRole reports whether role is among the caller's roles.
func (id Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// CanAccessOwned allows the owner of a record, compared case-insensitively, or any caller
// holding elevatedRole. A caller without an email owns nothing.
func (id Identity) CanAccessOwned(ownerEmail, elevatedRole string) bool {
	if elevatedRole != "" && id.HasRole(elevatedRole) {
		return true
	}
	if id.Email == "" {
		return false
	}
	return strings.EqualFold(id.Email, ownerEmail)
}

type contextKey struct{}

// Middleware stores the trusted identity on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), FromHeaders(r.Header))))
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by Middleware, or a guest identity.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}
