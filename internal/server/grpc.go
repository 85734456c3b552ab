// Package server exposes the authorization decision over HTTP (chi) and over Envoy's
// ext_authz gRPC API, and serves the operational endpoints.
package server

import (
	"context"
	"errors"
	"time"

	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	typev3 "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/genproto/googleapis/rpc/status"

	"github.com/eco2-team/backend/domains/platform-authz/internal/authz"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
	"github.com/eco2-team/backend/domains/platform-authz/internal/resolver"
)

// GRPCServer implements envoy.service.auth.v3.Authorization.
type GRPCServer struct {
	authv3.UnimplementedAuthorizationServer
	svc *authz.Service
}

var _ authv3.AuthorizationServer = (*GRPCServer)(nil)

// NewGRPCServer creates a GRPCServer.
func NewGRPCServer(svc *authz.Service) (*GRPCServer, error) {
	if svc == nil {
		return nil, errors.New(constants.ErrServiceRequired)
	}
	return &GRPCServer{svc: svc}, nil
}

// extractHeaders returns the authorization and request id headers Envoy forwarded.
// Envoy lower-cases header names in CheckRequest.
func extractHeaders(req *authv3.CheckRequest) (authorization, requestID string) {
	headers := req.GetAttributes().GetRequest().GetHttp().GetHeaders()
	return headers[constants.HeaderAuthorization], headers[constants.HeaderRequestID]
}

// Check applies the same fail-open decision as the HTTP endpoint.
func (s *GRPCServer) Check(ctx context.Context, req *authv3.CheckRequest) (*authv3.CheckResponse, error) {
	start := time.Now()
	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()

	authorization, requestID := extractHeaders(req)
	d, err := s.svc.Check(ctx, authorization, requestID)
	observe(metrics.EndpointGRPC, d.Reason, start)
	if err != nil {
		return denyResponse(typev3.StatusCode_InternalServerError, constants.MsgInternalError), nil
	}
	return allowResponse(d.Email, resolver.JoinRoles(d.Roles)), nil
}

// allowResponse overwrites any client-supplied identity headers.
func allowResponse(email, roles string) *authv3.CheckResponse {
	return &authv3.CheckResponse{
		Status: &status.Status{
			Code: int32(code.Code_OK),
		},
		HttpResponse: &authv3.CheckResponse_OkResponse{
			OkResponse: &authv3.OkHttpResponse{
				Headers: []*corev3.HeaderValueOption{
					{
						Header: &corev3.HeaderValue{
							Key:   constants.HeaderUserEmail,
							Value: email,
						},
						AppendAction: corev3.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD,
					},
					{
						Header: &corev3.HeaderValue{
							Key:   constants.HeaderUserRoles,
							Value: roles,
						},
						AppendAction: corev3.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD,
					},
				},
			},
		},
	}
}

func denyResponse(statusCode typev3.StatusCode, body string) *authv3.CheckResponse {
	return &authv3.CheckResponse{
		Status: &status.Status{
			Code: int32(code.Code_INTERNAL),
		},
		HttpResponse: &authv3.CheckResponse_DeniedResponse{
			DeniedResponse: &authv3.DeniedHttpResponse{
				Status: &typev3.HttpStatus{
					Code: statusCode,
				},
				Body: body,
			},
		},
	}
}
