package core

import "context"

type contextKey string

const (
	ctxKeyRunID    contextKey = "run_id"
	ctxKeyDataflow contextKey = "dataflow"
)

// ContextWithRunID adds the run identifier to context for log correlation.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, runID)
}

// ContextWithDataflow adds the dataflow name to context.
func ContextWithDataflow(ctx context.Context, dataflow string) context.Context {
	return context.WithValue(ctx, ctxKeyDataflow, dataflow)
}

// RunIDFromContext extracts the run identifier from context.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRunID).(string); ok {
		return v
	}
	return ""
}

// DataflowFromContext extracts the dataflow name from context.
func DataflowFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyDataflow).(string); ok {
		return v
	}
	return ""
}
