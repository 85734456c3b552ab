// Package constants provides centralized constant definitions for the platform authz services.
package constants

// ============================================================================
// HTTP Headers
// ============================================================================

const (
	// Request headers
	HeaderAuthorization = "authorization"
	HeaderRequestID     = "x-request-id"

	// Trusted identity headers (authz -> gateway -> upstream)
	HeaderUserEmail = "x-user-email"
	HeaderUserRoles = "x-user-roles"

	// B3 Trace Context headers (Envoy)
	HeaderB3TraceID = "x-b3-traceid"
	HeaderB3SpanID  = "x-b3-spanid"
)

// RoleSeparator joins roles in x-user-roles. Consumers split on it without trimming.
const RoleSeparator = ","

// UnknownRequestID is logged when the gateway did not forward x-request-id.
const UnknownRequestID = "unknown"

// ============================================================================
// HTTP Response Messages
// ============================================================================

const (
	MsgInternalError     = "Internal authorization error"
	MsgNoToken           = "No authorization token provided"
	MsgInvalidAuthHeader = "Invalid authorization header format"
	MsgInvalidToken      = "Invalid JWT token"
	MsgAuthRequired      = "Authentication required"
	MsgCustomerNotFound  = "Customer not found"
	MsgCustomerForbidden = "Access denied: You can only view your own customer information"
	MsgProductNotFound   = "Product not found"
	MsgInvalidIdentifier = "Invalid identifier"
)

// ============================================================================
// HTTP Paths
// ============================================================================

const (
	PathMetrics = "/metrics"
	PathHealth  = "/health"
	PathReady   = "/ready"

	PathAuthzRoles  = "/authz/roles"
	PathAuthzMe     = "/authz/me"
	PathAuthzHealth = "/authz/health"

	PathCustomers      = "/customers"
	PathCustomerHealth = "/customers/health"

	PathProducts      = "/products"
	PathProductHealth = "/products/health"
)

// ============================================================================
// Health Check
// ============================================================================

const (
	HealthOK      = "ok"
	HealthHealthy = "healthy"
)
