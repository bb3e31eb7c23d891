package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	// Import public error types used for structural logging
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	// Import the public logger interface it implements
	weftlog "github.com/gxo-labs/weft/pkg/weft/v1/log"
	// Import OpenTelemetry trace package for context handling
	"go.opentelemetry.io/otel/trace"
)

// Default log level if not specified or invalid.
const defaultLevel = slog.LevelInfo

// parseLogLevel converts common log level strings (case-insensitive) to slog.Level values.
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return defaultLevel
	}
}

// defaultLogger implements the public weftlog.Logger interface
// using the standard Go slog library.
type defaultLogger struct {
	// Embed the slog.Logger to directly expose its methods like Log, LogAttrs.
	*slog.Logger
}

// Compile-time check to ensure defaultLogger implements the public Logger interface.
var _ weftlog.Logger = (*defaultLogger)(nil)

// NewLogger creates a new Logger instance configured with the specified level,
// output format ("text" or "json"), and writer (defaults to os.Stderr).
// It returns an instance satisfying the public weftlog.Logger interface.
func NewLogger(levelStr string, formatStr string, writer io.Writer) weftlog.Logger {
	level := parseLogLevel(levelStr)
	if writer == nil {
		writer = os.Stderr
	}

	// Configure handler options: set level and custom attribute replacer.
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelAttribute,
	}

	// Select the base slog handler based on the requested format.
	var baseHandler slog.Handler
	switch strings.ToLower(formatStr) {
	case "json":
		baseHandler = slog.NewJSONHandler(writer, opts)
	case "text":
		fallthrough
	default: // Default to text format if formatStr is invalid or empty.
		baseHandler = slog.NewTextHandler(writer, opts)
	}

	// Wrap the base handler with the SpanContextHandler so log records emitted
	// under an active span carry its trace/span IDs.
	spanHandler := NewSpanContextHandler(baseHandler)

	return &defaultLogger{
		Logger: slog.New(spanHandler),
	}
}

// Mapping from slog levels to desired uppercase string representation in logs.
var levelStringMap = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

// replaceLevelAttribute is used in HandlerOptions to customize the output
// of the standard slog level attribute to be an uppercase string (e.g., "INFO").
func replaceLevelAttribute(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		levelStr, exists := levelStringMap[level]
		if !exists {
			levelStr = level.String()
		}
		a.Value = slog.StringValue(levelStr)
	}
	return a
}

// NewDefaultLogger provides a basic text logger instance writing to Stderr.
// Useful for simple cases or when configuration is unavailable.
func NewDefaultLogger(levelStr string) weftlog.Logger {
	return NewLogger(levelStr, "text", os.Stderr)
}

// Debugf logs a formatted message at the DEBUG level.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		msg := fmt.Sprintf(format, args...)
		l.Logger.Log(context.Background(), slog.LevelDebug, msg)
	}
}

// Infof logs a formatted message at the INFO level.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		msg := fmt.Sprintf(format, args...)
		l.Logger.Log(context.Background(), slog.LevelInfo, msg)
	}
}

// Warnf logs a formatted message at the WARN level.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelWarn) {
		msg := fmt.Sprintf(format, args...)
		l.Logger.Log(context.Background(), slog.LevelWarn, msg)
	}
}

// Errorf logs a formatted message at the ERROR level.
// It checks if the last argument is an error and attempts to log structured
// details if it's a known weft error type (like ProcessorStartupError).
// Implements the weftlog.Logger interface.
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelError) {
		msg := fmt.Sprintf(format, args...)
		l.logHelper(context.Background(), slog.LevelError, msg, args...)
	}
}

// logHelper is an internal helper to add structured error details to log entries.
// It checks the last argument for an error type and adds specific attributes if
// it's a ProcessorStartupError, otherwise logs the standard error string.
func (l *defaultLogger) logHelper(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	logArgs := []any{}
	processedArgs := args

	if len(args) > 0 {
		lastArg := args[len(args)-1]
		if err, ok := lastArg.(error); ok {
			processedArgs = args[:len(args)-1]
			var pse *werrors.ProcessorStartupError
			if errors.As(err, &pse) {
				logArgs = append(logArgs, slog.String("error_type", "ProcessorStartupError"))
				if pse.ProcessorName != "" {
					logArgs = append(logArgs, slog.String("processor", pse.ProcessorName))
				}
				if pse.Cause != nil {
					logArgs = append(logArgs, slog.String("error", pse.Cause.Error()))
				} else {
					logArgs = append(logArgs, slog.String("error", pse.Error()))
				}
			} else {
				logArgs = append(logArgs, slog.String("error", err.Error()))
			}
		}
	}
	finalArgs := append(processedArgs, logArgs...)
	l.Logger.Log(ctx, level, msg, finalArgs...)
}

// Log logs a message at the specified level with explicit key-value pairs.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) Log(level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(context.Background(), level, msg, args...)
}

// LogCtx logs a message at the specified level, potentially including
// trace/span IDs from the context via the SpanContextHandler.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(ctx, level, msg, args...)
}

// With returns a new Logger instance with added attributes.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) With(args ...interface{}) weftlog.Logger {
	newSlogger := l.Logger.With(args...)
	return &defaultLogger{Logger: newSlogger}
}

// IsEnabled checks if logging is enabled for the specified level.
// Implements the weftlog.Logger interface.
func (l *defaultLogger) IsEnabled(level slog.Level) bool {
	return l.Logger.Enabled(context.Background(), level)
}

// --- SpanContextHandler for Trace/Span ID Injection ---

// SpanContextHandler is a slog.Handler middleware that automatically injects
// trace_id and span_id attributes into log records if a valid span context
// exists in the logging context. Spans started by weft's own tracers attach
// their span context to the request context, so records logged under them
// correlate automatically.
type SpanContextHandler struct {
	// next is the underlying slog.Handler that this handler wraps.
	next slog.Handler
}

// NewSpanContextHandler creates a new SpanContextHandler wrapping the provided handler.
func NewSpanContextHandler(next slog.Handler) *SpanContextHandler {
	return &SpanContextHandler{next: next}
}

// Enabled forwards the check to the wrapped handler.
func (h *SpanContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle processes the log record. It extracts span context from the
// context.Context, adds trace_id and span_id attributes if available, and then
// forwards the modified record to the wrapped handler.
func (h *SpanContextHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, record)
}

// WithAttrs returns a new SpanContextHandler wrapping the result of calling
// WithAttrs on the next handler.
func (h *SpanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSpanContextHandler(h.next.WithAttrs(attrs))
}

// WithGroup returns a new SpanContextHandler wrapping the result of calling
// WithGroup on the next handler.
func (h *SpanContextHandler) WithGroup(name string) slog.Handler {
	return NewSpanContextHandler(h.next.WithGroup(name))
}
