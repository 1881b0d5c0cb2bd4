package logbuffer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/resilience"
)

const (
	DefaultMaxEntries = 100

	finalFlushTimeout = 5 * time.Second
)

// Options configures a Buffer.
type Options struct {
	// MaxEntries bounds the in-memory buffer; the oldest entries are
	// dropped first. Default DefaultMaxEntries.
	MaxEntries int
	// Level is the minimum level recorded.
	Level slog.Level
	// Retry governs each persistence attempt.
	Retry resilience.RetryOptions
	// Breaker guards the store. Nil creates a breaker with default settings.
	Breaker *resilience.CircuitBreaker
	// Logger reports persistence problems. It must not write into this
	// buffer. Nil discards.
	Logger *slog.Logger
}

// Buffer is a bounded in-memory log with write-behind persistence.
// Construct it with New and pass it to whoever needs it; there is no
// package-level instance.
type Buffer struct {
	store   Store
	max     int
	level   *slog.LevelVar
	retry   resilience.RetryOptions
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []Entry

	// persistMu orders Flush and Clear so a stale snapshot is never
	// saved over a cleared store.
	persistMu sync.Mutex

	dirty chan struct{}
}

// New creates a Buffer backed by store and restores previously persisted
// entries. A failed restore is logged and the buffer starts empty.
func New(ctx context.Context, store Store, opts Options) *Buffer {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.DefaultBreakerThreshold, resilience.DefaultBreakerTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	level := new(slog.LevelVar)
	level.Set(opts.Level)

	b := &Buffer{
		store:   store,
		max:     opts.MaxEntries,
		level:   level,
		retry:   opts.Retry,
		breaker: opts.Breaker,
		logger:  opts.Logger.With("area", "logbuffer"),
		dirty:   make(chan struct{}, 1),
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		b.logger.Error("failed to load persisted logs", "err", err)
		return b
	}
	b.entries = trim(loaded, b.max)
	return b
}

// SetLevel changes the minimum recorded level.
func (b *Buffer) SetLevel(l slog.Level) { b.level.Set(l) }

// Level returns the minimum recorded level.
func (b *Buffer) Level() slog.Level { return b.level.Level() }

// Append records e, assigning an ID and timestamp if missing, and marks
// the buffer for persistence.
func (b *Buffer) Append(e Entry) {
	if e.Level < b.level.Level() {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.Lock()
	b.entries = trim(append(b.entries, e), b.max)
	b.mu.Unlock()

	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.entries)
}

// EntriesAt returns the buffered entries with exactly the given level.
func (b *Buffer) EntriesAt(l slog.Level) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Entry
	for _, e := range b.entries {
		if e.Level == l {
			out = append(out, e)
		}
	}
	return out
}

// Export returns the buffered entries as indented JSON.
func (b *Buffer) Export() ([]byte, error) {
	entries := b.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting logs: %w", err)
	}
	return data, nil
}

// Clear drops all entries, in memory and in the store.
func (b *Buffer) Clear(ctx context.Context) error {
	b.persistMu.Lock()
	defer b.persistMu.Unlock()

	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()

	if err := b.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing log store: %w", err)
	}
	return nil
}

// Flush persists the current entries. Saves are retried and guarded by
// the circuit breaker, so a broken store fails fast instead of stalling
// every flush.
func (b *Buffer) Flush(ctx context.Context) error {
	b.persistMu.Lock()
	defer b.persistMu.Unlock()

	snapshot := b.Entries()
	return b.breaker.Execute(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, b.store.Save(ctx, snapshot)
		}, b.retry)
		return err
	})
}

// Run persists the buffer whenever new entries arrive until ctx is done,
// then performs a final flush.
func (b *Buffer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
			if err := b.Flush(flushCtx); err != nil {
				b.logger.Error("final log flush failed", "err", err)
			}
			cancel()
			return
		case <-b.dirty:
			if err := b.Flush(ctx); err != nil {
				b.logger.Warn("log flush failed", "err", err, "breaker", b.breaker.State())
			}
		}
	}
}

// trim keeps the newest limit entries.
func trim(entries []Entry, limit int) []Entry {
	if len(entries) <= limit {
		return entries
	}
	return slices.Clone(entries[len(entries)-limit:])
}
