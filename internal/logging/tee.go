package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Tee sends each record to every sink that accepts its level. A failing
// sink does not stop the others; their errors are joined.
type Tee struct {
	sinks []slog.Handler
}

func NewTee(sinks ...slog.Handler) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range t.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *Tee) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, s := range t.sinks {
		if !s.Enabled(ctx, record.Level) {
			continue
		}
		if err := s.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (t *Tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	return t.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (t *Tee) each(fn func(slog.Handler) slog.Handler) *Tee {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, s := range t.sinks {
		sinks[i] = fn(s)
	}
	return &Tee{sinks: sinks}
}
