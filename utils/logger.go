package utils

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	userIDKey        contextKey = "user_id"
)

type Logger struct {
	service string
	zl      *zap.Logger
}

var defaultLogger = newZapLogger("telecare")

func newZapLogger(service string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("LOG_LEVEL") == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		zl = zap.NewNop()
	}
	return &Logger{service: service, zl: zl}
}

func NewLogger(service string) *Logger {
	return &Logger{service: service, zl: defaultLogger.zl}
}

func (l *Logger) Debug(ctx context.Context, message string, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.DebugLevel, message, fields...)
}

func (l *Logger) Info(ctx context.Context, message string, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.InfoLevel, message, fields...)
}

func (l *Logger) Warn(ctx context.Context, message string, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.WarnLevel, message, fields...)
}

func (l *Logger) Error(ctx context.Context, message string, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.ErrorLevel, message, fields...)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, message string, fields ...map[string]interface{}) {
	zfields := []zap.Field{zap.String("service", l.service)}
	if id := GetCorrelationID(ctx); id != "" {
		zfields = append(zfields, zap.String("correlation_id", id))
	}
	if id := GetUserID(ctx); id != "" {
		zfields = append(zfields, zap.String("user_id", id))
	}
	if len(fields) > 0 {
		for k, v := range fields[0] {
			zfields = append(zfields, zap.Any(k, v))
		}
	}

	switch level {
	case zapcore.DebugLevel:
		l.zl.Debug(message, zfields...)
	case zapcore.InfoLevel:
		l.zl.Info(message, zfields...)
	case zapcore.WarnLevel:
		l.zl.Warn(message, zfields...)
	default:
		l.zl.Error(message, zfields...)
	}
}

func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func Debug(ctx context.Context, message string, fields ...map[string]interface{}) {
	defaultLogger.Debug(ctx, message, fields...)
}

func Info(ctx context.Context, message string, fields ...map[string]interface{}) {
	defaultLogger.Info(ctx, message, fields...)
}

func Warn(ctx context.Context, message string, fields ...map[string]interface{}) {
	defaultLogger.Warn(ctx, message, fields...)
}

func Error(ctx context.Context, message string, fields ...map[string]interface{}) {
	defaultLogger.Error(ctx, message, fields...)
}
