// Package resolver maps a verified email to the role set forwarded upstream.
//
// Lookup order is cache, then role source. Only real role sets are cached: the
// unverified-user fallback is recomputed on every request so that a user provisioned
// after their first request is picked up without waiting for a TTL.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/eco2-team/backend/domains/platform-authz/internal/cache"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
	"github.com/eco2-team/backend/domains/platform-authz/internal/roles"
	"github.com/eco2-team/backend/domains/platform-authz/internal/tracing"
)

// ErrResolution wraps every role source failure other than an unknown user.
var ErrResolution = errors.New(constants.ErrRoleResolution)

// Resolver looks up roles by email.
type Resolver struct {
	cache  cache.RoleCache
	source roles.Source
	logger *logging.Logger
}

// New creates a Resolver. A nil cache disables caching.
func New(c cache.RoleCache, source roles.Source, logger *logging.Logger) (*Resolver, error) {
	if source == nil {
		return nil, errors.New(constants.ErrSourceRequired)
	}
	if c == nil {
		c = cache.NopCache{}
	}
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Resolver{cache: c, source: source, logger: logger}, nil
}

// Resolve returns the roles of email. Users unknown to the source, and users without any
// role, resolve to [unverified-user]. Errors wrap ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, email string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolve")
	defer span.End()

	if cached, ok := r.cache.Get(ctx, email); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	list, err := r.source.Roles(ctx, email)
	switch {
	case errors.Is(err, roles.ErrUserNotFound):
		metrics.SourceLookupDuration.WithLabelValues(metrics.SourceNotFound).Observe(time.Since(start).Seconds())
		return unverified(), nil
	case err != nil:
		metrics.SourceLookupDuration.WithLabelValues(metrics.SourceError).Observe(time.Since(start).Seconds())
		metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeRoleSource).Inc()
		tracing.SetError(ctx, err, constants.ErrRoleResolution)
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	metrics.SourceLookupDuration.WithLabelValues(metrics.SourceFound).Observe(time.Since(start).Seconds())

	if len(list) == 0 {
		return unverified(), nil
	}
	if err := roles.Validate(list); err != nil {
		metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeRoleSource).Inc()
		tracing.SetError(ctx, err, constants.ErrRoleResolution)
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	// Written before returning so the next request for this email is a hit.
	r.cache.Set(ctx, email, list)
	r.logger.WithContext(ctx).WithUser(email).Debug("Roles resolved from source",
		constants.ECSFieldUserRoles, JoinRoles(list))
	return slices.Clone(list), nil
}

// CacheEnabled reports whether a real cache backend is configured.
func (r *Resolver) CacheEnabled() bool {
	return r.cache.Enabled()
}

// CacheHealthy reports cache backend reachability.
func (r *Resolver) CacheHealthy(ctx context.Context) bool {
	return r.cache.Healthy(ctx)
}

// JoinRoles renders roles the way x-user-roles carries them: comma separated, no spaces.
func JoinRoles(list []string) string {
	return strings.Join(list, constants.RoleSeparator)
}

// SplitRoles is the inverse of JoinRoles. An empty header yields no roles.
func SplitRoles(header string) []string {
	if header == "" {
		return nil
	}
	return strings.Split(header, constants.RoleSeparator)
}

func unverified() []string {
	return []string{constants.RoleUnverifiedUser}
}
