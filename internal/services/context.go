package services

import "context"

type contextKey string

const (
	jobIDKey     contextKey = "job_id"
	directionKey contextKey = "direction"
	runIDKey     contextKey = "run_id"
)

// WithJobID annotates context with the queued job identifier.
func WithJobID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the queued job identifier if present.
func JobIDFromContext(ctx context.Context) (int64, bool) {
	switch val := ctx.Value(jobIDKey).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithDirection annotates context with the job direction (encode/decode).
func WithDirection(ctx context.Context, direction string) context.Context {
	if direction == "" {
		return ctx
	}
	return context.WithValue(ctx, directionKey, direction)
}

// DirectionFromContext returns the job direction if present.
func DirectionFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(directionKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with a worker run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the worker run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
