// Package authz decides which identity the gateway forwards for a request.
//
// Check is fail-open: anything short of a well-formed credential with an email yields the
// guest role and the request proceeds; only a role source failure stops it. Me is the strict
// variant used for the caller's own identity and refuses unauthenticated requests.
//
// Credentials are not verified here. Envoy validates signatures before calling this service.
package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/identity"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
)

var (
	// ErrUnauthenticated is returned by Me when no usable credential was presented.
	ErrUnauthenticated = errors.New(constants.ErrUnauthenticated)
	// ErrInternal is returned when resolution panicked.
	ErrInternal = errors.New(constants.MsgInternalError)
)

// RoleResolver is the lookup Service depends on.
type RoleResolver interface {
	Resolve(ctx context.Context, email string) ([]string, error)
}

// Decision is the identity to forward. Email is empty for guests.
type Decision struct {
	Email  string
	Roles  []string
	Reason string
}

// Service holds the decision logic shared by the HTTP and gRPC surfaces.
type Service struct {
	resolver RoleResolver
	logger   *logging.Logger
}

// NewService creates a Service.
func NewService(resolver RoleResolver, logger *logging.Logger) (*Service, error) {
	if resolver == nil {
		return nil, errors.New(constants.ErrResolverRequired)
	}
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Service{resolver: resolver, logger: logger}, nil
}

// Check resolves the identity for an Authorization header value.
// A non-nil error means the request must be rejected with an internal error.
func (s *Service) Check(ctx context.Context, authorization, requestID string) (Decision, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx).WithRequestID(requestID)

	claim, err := identity.FromAuthorization(authorization)
	if err != nil {
		d := guest(credentialReason(err))
		metrics.FallbackRoles.WithLabelValues(constants.RoleGuest).Inc()
		log.AuthzFailure(constants.EventActionAuthorization, d.Reason, time.Since(start), err)
		return d, nil
	}

	d, err := s.resolve(ctx, claim.Email)
	if err != nil {
		log.WithUser(claim.Email).AuthzFailure(constants.EventActionAuthorization, failureReason(err), time.Since(start), err)
		return Decision{Reason: failureReason(err)}, err
	}
	log.AuthzDecision(constants.EventActionAuthorization, d.Email, d.Roles, d.Reason, time.Since(start))
	return d, nil
}

// Me is Check without the guest fallback: a missing or malformed credential is
// ErrUnauthenticated.
func (s *Service) Me(ctx context.Context, authorization, requestID string) (Decision, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx).WithRequestID(requestID)

	claim, err := identity.FromAuthorization(authorization)
	if err != nil {
		reason := credentialReason(err)
		log.AuthzFailure(constants.EventActionUserInfo, reason, time.Since(start), err)
		return Decision{Reason: reason}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	d, err := s.resolve(ctx, claim.Email)
	if err != nil {
		log.WithUser(claim.Email).AuthzFailure(constants.EventActionUserInfo, failureReason(err), time.Since(start), err)
		return Decision{Reason: failureReason(err)}, err
	}
	log.AuthzDecision(constants.EventActionUserInfo, d.Email, d.Roles, d.Reason, time.Since(start))
	return d, nil
}

// resolve converts a resolver panic into ErrInternal.
func (s *Service) resolve(ctx context.Context, email string) (d Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypePanic).Inc()
			d = Decision{}
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	list, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return Decision{}, err
	}

	reason := constants.ReasonRolesResolved
	if len(list) == 1 && list[0] == constants.RoleUnverifiedUser {
		reason = constants.ReasonUnverifiedUser
		metrics.FallbackRoles.WithLabelValues(constants.RoleUnverifiedUser).Inc()
	}
	return Decision{Email: email, Roles: list, Reason: reason}, nil
}

func guest(reason string) Decision {
	return Decision{Roles: []string{constants.RoleGuest}, Reason: reason}
}

func credentialReason(err error) string {
	switch {
	case errors.Is(err, identity.ErrMissingCredential):
		return constants.ReasonNoCredential
	case errors.Is(err, identity.ErrMissingIdentity):
		return constants.ReasonMissingIdentity
	default:
		return constants.ReasonMalformedCredential
	}
}

func failureReason(err error) string {
	if errors.Is(err, ErrInternal) {
		return constants.ReasonInternalError
	}
	return constants.ReasonResolutionError
}
