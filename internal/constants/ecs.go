package constants

// ============================================================================
// ECS (Elastic Common Schema) Field Keys
// ============================================================================
//
// Reference: https://www.elastic.co/guide/en/ecs/current/ecs-field-reference.html

const (
	// Base fields
	ECSFieldTimestamp = "@timestamp"
	ECSFieldMessage   = "message"

	// Log fields
	ECSFieldLogLevel = "log.level"

	// Event fields
	ECSFieldEventAction   = "event.action"
	ECSFieldEventOutcome  = "event.outcome"
	ECSFieldEventReason   = "event.reason"
	ECSFieldEventDuration = "event.duration_ms"

	// HTTP fields
	ECSFieldHTTPMethod = "http.request.method"
	ECSFieldHTTPStatus = "http.response.status_code"
	ECSFieldURLPath    = "url.path"
	ECSFieldRequestID  = "http.request.id"

	// User fields
	ECSFieldUserEmail = "user.email"
	ECSFieldUserRoles = "user.roles"

	// Error fields
	ECSFieldErrorMessage = "error.message"

	// Trace fields (ECS standard)
	ECSFieldTraceID = "trace.id"
	ECSFieldSpanID  = "span.id"
)

// ============================================================================
// ECS Event Actions
// ============================================================================

const (
	EventActionAuthorization = "authorization"
	EventActionUserInfo      = "user-info"
	EventActionRecordAccess  = "record-access"
)

// ============================================================================
// ECS Event Outcomes
// ============================================================================

const (
	EventOutcomeSuccess = "success"
	EventOutcomeFailure = "failure"
)

// ============================================================================
// ECS Version
// ============================================================================

const (
	ECSVersion = "8.11"
)
