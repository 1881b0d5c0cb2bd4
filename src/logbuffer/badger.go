package logbuffer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// logsKey is the single key the buffer snapshot is stored under.
var logsKey = []byte("app_logs")

// BadgerStore persists entries in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadgerStore opens (or creates) a store in dir. An empty dir opens
// an in-memory database. logger may be nil to silence BadgerDB.
func OpenBadgerStore(dir string, logger *slog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating log store directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening log store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Load(context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(logsKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entries)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading logs: %w", err)
	}
	return entries, nil
}

func (s *BadgerStore) Save(_ context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding logs: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(logsKey, data)
	}); err != nil {
		return fmt.Errorf("saving logs: %w", err)
	}
	return nil
}

func (s *BadgerStore) Clear(context.Context) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(logsKey)
	}); err != nil {
		return fmt.Errorf("clearing logs: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
