package constants

// ============================================================================
// Environment Variable Names
// ============================================================================

const (
	// Logging
	EnvLogLevel    = "LOG_LEVEL"
	EnvEnvironment = "ENVIRONMENT"

	// Log levels
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// ============================================================================
// Default Values
// ============================================================================

const (
	// Environment
	DefaultEnvironment = "dev"
)
