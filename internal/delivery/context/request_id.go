package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// KeyRequestID is the echo.Context key of the request ID.
	KeyRequestID ContextKey = "request_id"

	// keyScope holds the requestScope of a request or a consumed message.
	keyScope ContextKey = "request_scope"

	// HeaderXRequestID is the HTTP header name for request ID.
	HeaderXRequestID = "X-Request-Id"
)

// requestScope is what a request carries down to use cases and repositories.
type requestScope struct {
	requestID string
	logger    *slog.Logger
}

// SetRequestID sets the request ID in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// GetRequestID returns the request ID of c.
// Falls back to the response header, then to a fresh UUID for contexts the middleware never saw.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(string(KeyRequestID)).(string); ok && id != "" {
		return id
	}
	if id := c.Response().Header().Get(HeaderXRequestID); id != "" {
		return id
	}

	return uuid.New().String()
}

// WithRequestScope binds requestID and a child of base tagged with it to ctx.
// The child logger is returned for immediate use.
func WithRequestScope(ctx context.Context, requestID string, base *slog.Logger) (context.Context, *slog.Logger) {
	scoped := base.With(slog.String("request_id", requestID))

	return context.WithValue(ctx, keyScope, &requestScope{requestID: requestID, logger: scoped}), scoped
}

// RequestIDFromContext returns the request ID bound by WithRequestScope, or "".
func RequestIDFromContext(ctx context.Context) string {
	if scope, ok := ctx.Value(keyScope).(*requestScope); ok {
		return scope.requestID
	}

	return ""
}

// GetLoggerOrDefault returns the request-scoped logger, or fallback outside a request.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if scope, ok := ctx.Value(keyScope).(*requestScope); ok && scope.logger != nil {
		return scope.logger
	}

	return fallback
}
