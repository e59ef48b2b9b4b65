package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with application-specific methods
type Logger struct {
	zerolog.Logger
}

// New creates a new Logger instance
func New(level string, format string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var logger zerolog.Logger

	if format == "text" || format == "console" {
		// Human-readable output for development
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}

	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything, for tests
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithTaskID returns a new logger with the background task ID attached
func (l *Logger) WithTaskID(taskID string) *Logger {
	return &Logger{
		Logger: l.With().Str("task_id", taskID).Logger(),
	}
}

// WithComponent returns a new logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// WithTemplateKey returns a new logger with the template key attached
func (l *Logger) WithTemplateKey(key string) *Logger {
	return &Logger{
		Logger: l.With().Str("template_key", key).Logger(),
	}
}

// RequestLog describes one served HTTP request
type RequestLog struct {
	Method    string
	Path      string
	Status    int
	Bytes     int
	Duration  time.Duration
	ClientIP  string
	RequestID string
	// Probe marks health and metrics scrapes, which log at debug level
	Probe bool
}

// HTTPRequest logs an HTTP request. 5xx responses log at error level.
func (l *Logger) HTTPRequest(req RequestLog) {
	event := l.Info()
	switch {
	case req.Status >= 500:
		event = l.Error()
	case req.Probe:
		event = l.Debug()
	}
	event.
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", req.Status).
		Int("bytes", req.Bytes).
		Dur("duration", req.Duration).
		Str("client_ip", req.ClientIP).
		Str("request_id", req.RequestID).
		Msg("HTTP request")
}

// AuditLog records an administrative change to a template resource
func (l *Logger) AuditLog(actor, action, resourceType, resourceID string, metadata map[string]interface{}) {
	event := l.Info().
		Str("audit", "true").
		Str("actor", actor).
		Str("action", action).
		Str("resource_type", resourceType).
		Str("resource_id", resourceID)

	if metadata != nil {
		event.Interface("metadata", metadata)
	}

	event.Msg("audit log")
}
