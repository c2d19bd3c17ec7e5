package logging

import (
	"context"
	"errors"
	"log/slog"
)

// sinkHandler sends each record to the console and the log file. Every sink
// keeps its own level check, so a failing file write never hides the console
// line.
type sinkHandler []slog.Handler

func newSinkHandler(handlers ...slog.Handler) slog.Handler {
	var sinks sinkHandler
	for _, h := range handlers {
		if h != nil {
			sinks = append(sinks, h)
		}
	}
	switch len(sinks) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return sinks[0]
	}
	return sinks
}

func (s sinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range s {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s sinkHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range s {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (s sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return s.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (s sinkHandler) WithGroup(name string) slog.Handler {
	return s.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (s sinkHandler) each(fn func(slog.Handler) slog.Handler) sinkHandler {
	next := make(sinkHandler, len(s))
	for i, h := range s {
		next[i] = fn(h)
	}
	return next
}
