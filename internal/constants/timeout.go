package constants

import "time"

// ============================================================================
// Timeouts
// ============================================================================

const (
	// InitTimeout is the timeout for initialization (Redis ping, Postgres ping)
	InitTimeout = 5 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds slow clients on the HTTP listeners
	ReadHeaderTimeout = 5 * time.Second
)
