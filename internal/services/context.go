package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	componentKey contextKey = "component"
	inputKey     contextKey = "input"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the pipeline run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(runIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithComponent annotates context with the active component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(componentKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithInput annotates context with the input (URL or path) being processed.
func WithInput(ctx context.Context, input string) context.Context {
	if input == "" {
		return ctx
	}
	return context.WithValue(ctx, inputKey, input)
}

// InputFromContext returns the input being processed if present.
func InputFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(inputKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
