// Package logbuffer keeps a bounded, queryable copy of recent log records
// and persists it through a pluggable Store. It plugs into log/slog as a
// Handler, so callers keep logging through an ordinary *slog.Logger.
package logbuffer

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one buffered log record.
type Entry struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"timestamp"`
	Level   slog.Level     `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"context,omitempty"`
}

// Store persists buffered entries. Save replaces whatever was stored.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Clear(ctx context.Context) error
}
