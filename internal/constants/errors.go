package constants

// ============================================================================
// Validation Error Messages
// ============================================================================

const (
	ErrResolverRequired   = "resolver is required"
	ErrSourceRequired     = "role source is required"
	ErrCacheRequired      = "role cache is required"
	ErrServiceRequired    = "authz service is required"
	ErrDatabaseURLMissing = "database url is required for postgres role source"
	ErrRedisURLMissing    = "redis url is required for redis cache backend"
	ErrUnknownCacheKind   = "unknown cache backend: %q"
	ErrUnknownSourceKind  = "unknown role source: %q"
)

// ============================================================================
// Credential Error Messages
// ============================================================================

const (
	ErrMissingCredential   = "missing credential"
	ErrMalformedCredential = "malformed credential"
	ErrMissingIdentity     = "email claim not found in token payload"
	ErrSegmentCount        = "expected 3 token segments, got %d"
	ErrPayloadDecode       = "decode payload segment: %w"
	ErrPayloadJSON         = "parse payload json: %w"
	ErrPayloadNotObject    = "payload is not a json object"
	ErrAuthScheme          = "authorization header is not a bearer credential"
)

// ============================================================================
// Role Resolution Error Messages
// ============================================================================

const (
	ErrUserNotFound    = "user not found"
	ErrRoleResolution  = "role resolution failed"
	ErrRoleSourceQuery = "query role source: %w"
	ErrUnauthenticated = "unauthenticated"
	ErrInvalidRoleName = "invalid role name: %q"
)

// ============================================================================
// Redis Error Messages
// ============================================================================

const (
	ErrPoolOptionsRequired = "pool options is required"
	ErrRedisURLParse       = "failed to parse redis url: %w"
	ErrRedisClientNil      = "redis client is nil"
	ErrStoreNil            = "cache is nil"
	ErrRedisOperation      = "redis error: %w"
)

// ============================================================================
// Decision Reasons (for logging and metric labels)
// ============================================================================

const (
	ReasonNoCredential        = "no_credential"
	ReasonMalformedCredential = "malformed_credential"
	ReasonMissingIdentity     = "missing_identity"
	ReasonUnverifiedUser      = "unverified_user"
	ReasonRolesResolved       = "roles_resolved"
	ReasonResolutionError     = "resolution_error"
	ReasonInternalError       = "internal_error"
)
