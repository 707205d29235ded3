// Package logger provides structured logging utilities for the application.
package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/roomharvest/internal/ctxutil"
)

// ContextHandler is a slog.Handler that lifts tracing values (run ID,
// results page, session step) from the context into every record.
//
// It wraps another handler, so call sites log with InfoContext and friends
// instead of threading these values through every function.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds run_id, page and step when present, then delegates.
//
// Canceling the context does not affect record processing (per slog.Handler contract).
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := ctxutil.GetRunID(ctx); runID != "" {
		r.AddAttrs(slog.String("run_id", runID))
	}

	if page, ok := ctxutil.GetPage(ctx); ok {
		r.AddAttrs(slog.Int("page", page))
	}

	if step := ctxutil.GetStep(ctx); step != "" {
		r.AddAttrs(slog.String("step", step))
	}

	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler whose attributes consist of
// both the receiver's attributes and the arguments.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler with the given group name prepended
// to the current group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
