// Package store is the key/value collaborator backing the favorites list.
// It keeps string lists as JSON values in Badger and notifies in-process
// watchers after every committed write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/searchbook/internal/stream"
)

// maxUpdateAttempts bounds the retries of a read-modify-write on conflict.
const maxUpdateAttempts = 5

// Options configures the Badger database.
type Options struct {
	Path     string
	InMemory bool
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	mu      sync.Mutex
	closed  bool
	changes map[string]*stream.Subject[struct{}]
}

// New opens the database described by opts.
func New(opts Options, logger *slog.Logger) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts.SyncWrites = true       // favorites must survive a crash
		bopts.CompactL0OnClose = true // faster startup
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Badger database opened", "path", opts.Path, "in_memory", opts.InMemory)

	return &Store{
		db:      db,
		logger:  logger,
		changes: make(map[string]*stream.Subject[struct{}]),
	}, nil
}

// Close completes every watcher and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, subject := range s.changes {
		subject.Close()
	}
	clear(s.changes)
	s.mu.Unlock()

	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// Ping verifies the database still serves reads.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Strings returns the list stored under key, or nil if the key is missing.
func (s *Store) Strings(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var values []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		values, err = readStrings(txn, key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return values, nil
}

// SetStrings replaces the list stored under key.
func (s *Store) SetStrings(ctx context.Context, key string, values []string) error {
	_, err := s.UpdateStrings(ctx, key, func([]string) ([]string, error) {
		return values, nil
	})
	return err
}

// UpdateStrings applies fn to the current list in a single transaction and
// stores its result. fn may run more than once if a concurrent write
// conflicts. The committed list is returned.
func (s *Store) UpdateStrings(ctx context.Context, key string, fn func(current []string) ([]string, error)) ([]string, error) {
	var (
		next []string
		err  error
	)
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			current, err := readStrings(txn, key)
			if err != nil {
				return err
			}
			next, err = fn(slices.Clone(current))
			if err != nil {
				return err
			}
			data, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("failed to marshal value: %w", err)
			}
			return txn.Set([]byte(key), data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug("write conflict, retrying", "key", key, "attempt", attempt)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", key, err)
	}

	s.notify(key)
	return next, nil
}

// WatchStrings emits the list stored under key now and again after every
// committed write to it. Consecutive emissions may be equal. The channel is
// closed when ctx is done or the store is closed.
func (s *Store) WatchStrings(ctx context.Context, key string) <-chan []string {
	out := make(chan []string)

	// Subscribe before the first read so no write can slip in between.
	signals := s.subscribe(ctx, key)

	go func() {
		defer close(out)

		emit := func() bool {
			values, err := s.Strings(ctx, key)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("watch read failed", "key", key, "error", err)
				}
				return ctx.Err() == nil
			}
			select {
			case out <- values:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for range signals {
			if !emit() {
				return
			}
		}
	}()

	return out
}

func (s *Store) subscribe(ctx context.Context, key string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stream.Of[struct{}]()
	}
	subject, ok := s.changes[key]
	if !ok {
		subject = stream.NewPublishSubject[struct{}]()
		s.changes[key] = subject
	}
	return subject.Subscribe(ctx)
}

func (s *Store) notify(key string) {
	s.mu.Lock()
	subject := s.changes[key]
	s.mu.Unlock()

	if subject != nil {
		subject.Send(struct{}{})
	}
}

func readStrings(txn *badger.Txn, key string) ([]string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var values []string
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &values)
	})
	if err != nil {
		return nil, errors.Join(ErrCorruptValue, err)
	}
	return values, nil
}
