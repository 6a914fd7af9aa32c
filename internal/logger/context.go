package logger

import "context"

type requestIDKey struct{}
type connectionIDKey struct{}

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithConnectionID returns a new context carrying the websocket connection ID
// so that log lines from both per-connection tasks correlate.
func WithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connectionIDKey{}, id)
}

// ConnectionID extracts the connection ID from the context, or "".
func ConnectionID(ctx context.Context) string {
	id, _ := ctx.Value(connectionIDKey{}).(string)
	return id
}
