package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// WithRunID stores the id of the current command run in the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromCtx extracts the run ID from the context.
// Returns an empty string if absent.
func RunIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// EnsureRunID returns ctx carrying a run ID, generating one if ctx has none,
// together with that ID.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id := RunIDFromCtx(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

const requestIDKey ctxKey = "request_id"

// WithRequestID stores the id of the current HTTP request in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
