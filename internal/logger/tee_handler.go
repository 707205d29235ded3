package logger

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler writes every record to the local JSON handler and forwards a
// clone to the remote shipper when the shipper accepts the level.
type teeHandler struct {
	local  slog.Handler
	remote *AsyncHandler
}

func newTeeHandler(local slog.Handler, remote *AsyncHandler) *teeHandler {
	return &teeHandler{local: local, remote: remote}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.remote.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var localErr, remoteErr error
	if h.local.Enabled(ctx, r.Level) {
		localErr = h.local.Handle(ctx, r.Clone())
	}
	if h.remote.Enabled(ctx, r.Level) {
		remoteErr = h.remote.Handle(ctx, r)
	}
	return errors.Join(localErr, remoteErr)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		local:  h.local.WithAttrs(attrs),
		remote: h.remote.WithAttrs(attrs).(*AsyncHandler),
	}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		local:  h.local.WithGroup(name),
		remote: h.remote.WithGroup(name).(*AsyncHandler),
	}
}
