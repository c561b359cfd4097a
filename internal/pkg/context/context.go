// Package appctx carries per-request values across layer boundaries.
package appctx

import (
	"context"
	"strings"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID attaches a request id to the context. Empty ids are dropped.
func WithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id bound to the context, or "".
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
