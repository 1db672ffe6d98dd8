package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	analysisKey  contextKey = "analysis_id"
)

// WithContext returns a logger carrying the request and analysis ids found in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	fields := make([]zap.Field, 0, 2)
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetAnalysisID(ctx); id != "" {
		fields = append(fields, zap.String("analysis_id", id))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// FromContext returns the logger stored in ctx, or the global one
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l.WithContext(ctx)
	}
	return L().WithContext(ctx)
}

// ToContext stores l in ctx
func ToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID adds a request id to ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID extracts the request id from ctx
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAnalysisID adds an analysis run id to ctx
func WithAnalysisID(ctx context.Context, analysisID string) context.Context {
	return context.WithValue(ctx, analysisKey, analysisID)
}

// GetAnalysisID extracts the analysis run id from ctx
func GetAnalysisID(ctx context.Context) string {
	id, _ := ctx.Value(analysisKey).(string)
	return id
}

func InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Info(msg, fields...)
}

func WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Warn(msg, fields...)
}

func ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Error(msg, fields...)
}
