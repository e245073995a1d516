package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// contextKey is the key type used to store values in a context.
// Using a custom type prevents collisions.
type contextKey string

const loggerKey = contextKey("logger")

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLoggerFromCtx retrieves the operation-scoped logger from ctx.
// It returns the default logger if none is found.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// StartOperation enriches baseLogger with an operation ID and name, stores it and
// the acting user in ctx, and returns a func that logs completion with latency.
func StartOperation(ctx context.Context, baseLogger *slog.Logger, operation string, userID string) (context.Context, func(err error)) {
	start := time.Now()
	operationID := uuid.NewString()

	opLogger := baseLogger.With(
		slog.String("operation_id", operationID),
		slog.String("operation", operation),
		slog.String("user_id", userID),
	)

	ctx = WithLogger(ctx, opLogger)
	ctx = WithUserID(ctx, userID)

	return ctx, func(err error) {
		latency := time.Since(start)
		if err != nil {
			opLogger.Error("Operation failed", slog.String("error", err.Error()), slog.Duration("latency", latency))
			return
		}
		opLogger.Info("Operation completed", slog.Duration("latency", latency))
	}
}

// StructuredLoggingMiddleware creates a Gin middleware handler that injects
// a request-scoped logger into the request context.
func StructuredLoggingMiddleware(baseLogger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()

		requestLogger := baseLogger.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), requestLogger))

		c.Next()

		requestLogger.Info("Request completed",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
