package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for load-run identifiers.
	RunIDKey contextKey = "run_id"

	// GateKey is the context key for gate names.
	GateKey contextKey = "gate"
)

// WithRunID adds a load-run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the load-run ID from the context.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// WithGate adds a gate name to the context.
func WithGate(ctx context.Context, gate string) context.Context {
	return context.WithValue(ctx, GateKey, gate)
}

// GetGate retrieves the gate name from the context.
func GetGate(ctx context.Context) string {
	if gate, ok := ctx.Value(GateKey).(string); ok {
		return gate
	}
	return ""
}

// contextHandler adds the context fields above to every record logged
// through a *Context method.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetRunID(ctx); id != "" {
		r.AddAttrs(slog.String(string(RunIDKey), id))
	}
	if gate := GetGate(ctx); gate != "" {
		r.AddAttrs(slog.String(string(GateKey), gate))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
