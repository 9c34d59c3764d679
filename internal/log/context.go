package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger set by the trace middleware, or the
// default logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger writes the fixed-shape events: request start and end,
// record changes and blob failures.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs at warn for 4xx and error for 5xx responses.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed",
		append([]any{FieldComponent, sl.logger.component}, fields.ToSlice()...)...)
}

func (sl *StructuredLogger) LogInvestmentCreated(ctx context.Context, id int64, amount, category, blobPath string) {
	fields := NewFields().
		WithInvestment(id, amount, category, blobPath).
		WithOperation(OpCreate)

	sl.logger.InfoContext(ctx, "Investment created successfully", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogInvestmentDeleted(ctx context.Context, id int64, amount, category, blobPath string) {
	fields := NewFields().
		WithInvestment(id, amount, category, blobPath).
		WithOperation(OpDelete)

	sl.logger.InfoContext(ctx, "Investment deleted", fields.ToSlice()...)
}

// LogBlobFailure records a screenshot operation that failed after the
// record change it belongs to was already decided. id is 0 when no record
// exists.
func (sl *StructuredLogger) LogBlobFailure(ctx context.Context, msg string, err error, operation string, id int64, blobPath string) {
	fields := NewFields().
		WithOperation(operation).
		WithError(err).
		WithErrorType(ErrorTypeStorage)
	fields[FieldBlobPath] = blobPath
	if id > 0 {
		fields[FieldInvestmentID] = id
	}

	sl.logger.WarnContext(ctx, msg, fields.ToSlice()...)
}
