// Package logging provides ECS-compatible structured logging for the platform services.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

const (
	// Log levels (re-exported for convenience)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger wraps slog.Logger with ECS-compatible defaults.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level       slog.Level
	Output      io.Writer
	Service     string
	Environment string
}

// DefaultConfig returns default logger configuration for the named service.
func DefaultConfig(service string) *Config {
	return &Config{
		Level:       ParseLevel(os.Getenv(constants.EnvLogLevel)),
		Output:      os.Stdout,
		Service:     service,
		Environment: getEnv(constants.EnvEnvironment, constants.DefaultEnvironment),
	}
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case constants.LogLevelDebug:
		return LevelDebug
	case constants.LogLevelWarn:
		return LevelWarn
	case constants.LogLevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// New creates a new ECS-compatible logger.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig(constants.ServiceName)
	}
	if cfg.Service == "" {
		cfg.Service = constants.ServiceName
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// ECS field mapping
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{Key: constants.ECSFieldTimestamp, Value: a.Value}
			case slog.LevelKey:
				return slog.Attr{Key: constants.ECSFieldLogLevel, Value: slog.StringValue(a.Value.String())}
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(cfg.Output, opts)
	ecsLogger := slog.New(handler).With(
		slog.Group("ecs",
			slog.String("version", constants.ECSVersion),
		),
		slog.Group("service",
			slog.String("name", cfg.Service),
			slog.String("version", constants.ServiceVersion),
			slog.String("environment", cfg.Environment),
		),
	)

	return &Logger{Logger: ecsLogger}
}

// WithContext returns a logger carrying the trace/span ids of the active span, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.WithTrace(sc.TraceID().String(), sc.SpanID().String())
}

// WithRequest returns a logger with HTTP request metadata.
func (l *Logger) WithRequest(method, path string) *Logger {
	return &Logger{
		Logger: l.With(
			slog.String(constants.ECSFieldHTTPMethod, method),
			slog.String(constants.ECSFieldURLPath, path),
		),
	}
}

// WithRequestID tags every line with the gateway correlation id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	if requestID == "" {
		requestID = constants.UnknownRequestID
	}
	return &Logger{Logger: l.With(slog.String(constants.ECSFieldRequestID, requestID))}
}

// WithTrace returns a logger with trace context.
func (l *Logger) WithTrace(traceID, spanID string) *Logger {
	if traceID == "" {
		return l
	}
	attrs := []any{
		slog.String(constants.ECSFieldTraceID, traceID),
	}
	if spanID != "" {
		attrs = append(attrs, slog.String(constants.ECSFieldSpanID, spanID))
	}
	return &Logger{
		Logger: l.With(attrs...),
	}
}

// WithUser returns a logger with user context (masked).
func (l *Logger) WithUser(email string) *Logger {
	return &Logger{
		Logger: l.With(slog.String(constants.ECSFieldUserEmail, MaskEmail(email))),
	}
}

// WithDuration returns a logger with duration information.
func (l *Logger) WithDuration(d time.Duration) *Logger {
	return &Logger{
		Logger: l.With(
			slog.Float64(constants.ECSFieldEventDuration, float64(d.Microseconds())/1000),
		),
	}
}

// AuthzDecision logs a completed authorization decision.
func (l *Logger) AuthzDecision(action, email string, roles []string, reason string, duration time.Duration) {
	l.WithUser(email).
		WithDuration(duration).
		Info("Authorization resolved",
			slog.String(constants.ECSFieldEventAction, action),
			slog.String(constants.ECSFieldEventOutcome, constants.EventOutcomeSuccess),
			slog.String(constants.ECSFieldEventReason, reason),
			slog.String(constants.ECSFieldUserRoles, strings.Join(roles, constants.RoleSeparator)),
		)
}

// AuthzFailure logs an authorization request that did not produce an identity.
func (l *Logger) AuthzFailure(action, reason string, duration time.Duration, err error) {
	attrs := []any{
		slog.String(constants.ECSFieldEventAction, action),
		slog.String(constants.ECSFieldEventOutcome, constants.EventOutcomeFailure),
		slog.String(constants.ECSFieldEventReason, reason),
	}
	if err != nil {
		attrs = append(attrs, slog.String(constants.ECSFieldErrorMessage, err.Error()))
	}

	if reason == constants.ReasonResolutionError || reason == constants.ReasonInternalError {
		l.WithDuration(duration).Error("Authorization failed", attrs...)
		return
	}
	l.WithDuration(duration).Info("Authorization degraded", attrs...)
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// NewTestLogger creates a logger for testing (discards output).
func NewTestLogger() *Logger {
	return New(&Config{
		Level:       LevelDebug,
		Output:      io.Discard,
		Service:     constants.ServiceName,
		Environment: "test",
	})
}
