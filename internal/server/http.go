package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eco2-team/backend/domains/platform-authz/internal/authz"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/identity"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
	"github.com/eco2-team/backend/domains/platform-authz/internal/resolver"
	"github.com/eco2-team/backend/domains/platform-authz/internal/tracing"
)

// CacheStatus reports role cache state for the health endpoint.
type CacheStatus interface {
	CacheEnabled() bool
	CacheHealthy(ctx context.Context) bool
}

// HealthResponse is the body of every service's health endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Timestamp    string `json:"timestamp"`
	CacheEnabled *bool  `json:"cache_enabled,omitempty"`
	CacheHealthy *bool  `json:"cache_healthy,omitempty"`
}

// NewHealthResponse stamps a healthy response for service.
func NewHealthResponse(service string) HealthResponse {
	return HealthResponse{
		Status:    constants.HealthHealthy,
		Service:   service,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type meResponse struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HTTPHandler serves the authorization endpoints.
type HTTPHandler struct {
	svc    *authz.Service
	cache  CacheStatus
	logger *logging.Logger
}

// NewHTTPHandler creates an HTTPHandler. cache may be nil.
func NewHTTPHandler(svc *authz.Service, cache CacheStatus, logger *logging.Logger) (*HTTPHandler, error) {
	if svc == nil {
		return nil, errors.New(constants.ErrServiceRequired)
	}
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &HTTPHandler{svc: svc, cache: cache, logger: logger}, nil
}

// Router mounts the authorization endpoints.
//
// /authz/roles answers Envoy's HTTP ext_authz filter. Envoy appends the original request
// path to the configured prefix, so every suffix is routed to the same handler.
func (h *HTTPHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(tracing.Middleware)
	r.Use(h.recoverer)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		r.MethodFunc(method, constants.PathAuthzRoles, h.Roles)
		r.MethodFunc(method, constants.PathAuthzRoles+"/*", h.Roles)
	}
	r.Get(constants.PathAuthzMe, h.Me)
	r.Get(constants.PathAuthzHealth, h.Health)
	return r
}

// Roles returns the caller's identity in x-user-email and x-user-roles with an empty body.
func (h *HTTPHandler) Roles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()

	d, err := h.svc.Check(r.Context(), r.Header.Get(constants.HeaderAuthorization), r.Header.Get(constants.HeaderRequestID))
	observe(metrics.EndpointRoles, d.Reason, start)
	if err != nil {
		writeInternalError(w)
		return
	}

	w.Header().Set(constants.HeaderUserEmail, d.Email)
	w.Header().Set(constants.HeaderUserRoles, resolver.JoinRoles(d.Roles))
	w.WriteHeader(http.StatusOK)
}

// Me returns the caller's email and roles as JSON.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()

	d, err := h.svc.Me(r.Context(), r.Header.Get(constants.HeaderAuthorization), r.Header.Get(constants.HeaderRequestID))
	observe(metrics.EndpointMe, d.Reason, start)
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: unauthenticatedDetail(err)})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: constants.MsgInternalError})
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Email: d.Email, Roles: d.Roles})
}

// Health reports liveness and, when caching is enabled, cache reachability.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := NewHealthResponse(constants.ServiceName)
	enabled := h.cache != nil && h.cache.CacheEnabled()
	resp.CacheEnabled = &enabled
	if enabled {
		healthy := h.cache.CacheHealthy(r.Context())
		resp.CacheHealthy = &healthy
	}
	writeJSON(w, http.StatusOK, resp)
}

// recoverer turns a handler panic into the internal error response without identity headers.
func (h *HTTPHandler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypePanic).Inc()
				h.logger.WithContext(r.Context()).
					WithRequestID(r.Header.Get(constants.HeaderRequestID)).
					WithRequest(r.Method, r.URL.Path).
					Error("Unexpected authorization error", constants.ECSFieldErrorMessage, rec)
				w.Header().Del(constants.HeaderUserEmail)
				w.Header().Del(constants.HeaderUserRoles)
				writeInternalError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func unauthenticatedDetail(err error) string {
	switch {
	case errors.Is(err, identity.ErrMissingCredential):
		return constants.MsgNoToken
	case errors.Is(err, identity.ErrBearerScheme):
		return constants.MsgInvalidAuthHeader
	default:
		return constants.MsgInvalidToken
	}
}

func observe(endpoint, reason string, start time.Time) {
	metrics.RequestDuration.WithLabelValues(endpoint, reason).Observe(time.Since(start).Seconds())
	metrics.RequestsTotal.WithLabelValues(endpoint, reason).Inc()
}

// writeInternalError writes the plain-text internal error body Envoy relays to the client.
func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(constants.MsgInternalError))
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSON is writeJSON for the downstream services.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}
