package api

import "context"

type requestIDKeyType struct{}

//nolint:gochecknoglobals // this is zero-size sentinel type.
var requestIDKey = requestIDKeyType{}

// WithRequestID returns a new context whose requests carry id in X-Request-Id.
// Background tasks use their task id so server logs can be correlated.
func WithRequestID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, requestIDKey, id)
}

// RequestIDFromContext extracts a request id from context if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
