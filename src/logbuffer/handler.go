package logbuffer

import (
	"context"
	"log/slog"
)

// Handler returns a slog.Handler that records into b.
func (b *Buffer) Handler() slog.Handler {
	return &handler{buf: b}
}

type handler struct {
	buf    *Buffer
	attrs  map[string]any
	prefix string
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.buf.level.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for k, v := range h.attrs {
		attrs[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, h.prefix, a)
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}

	h.buf.Append(Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *handler) WithAttrs(as []slog.Attr) slog.Handler {
	next := &handler{buf: h.buf, prefix: h.prefix, attrs: make(map[string]any, len(h.attrs)+len(as))}
	for k, v := range h.attrs {
		next.attrs[k] = v
	}
	for _, a := range as {
		addAttr(next.attrs, h.prefix, a)
	}
	return next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &handler{buf: h.buf, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// addAttr flattens a into dst, joining group names with dots.
func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range v.Group() {
			addAttr(dst, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}

	val := v.Any()
	if err, ok := val.(error); ok {
		val = err.Error()
	}
	dst[prefix+a.Key] = val
}
