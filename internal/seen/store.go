package seen

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

const DefaultMaxSize = 10000

// Backend persists the key list. Keys travel oldest first in both directions.
type Backend interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, keys []string) error
	Describe() string
}

// Store is the dedup set for one region. It is loaded once, mutated in memory
// and flushed explicitly; a failed flush keeps the in-memory state for a retry.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  zerolog.Logger
	set     *orderedSet
	dirty   bool
}

// Open loads the backend. Unreadable or malformed state is logged and
// replaced by an empty set.
func Open(ctx context.Context, backend Backend, maxSize int, logger zerolog.Logger) *Store {
	store := &Store{
		backend: backend,
		logger:  logger,
		set:     newOrderedSet(maxSize),
	}
	if backend == nil {
		return store
	}

	keys, err := backend.Load(ctx)
	if err != nil {
		logger.Error().Err(err).Str("backend", backend.Describe()).Msg("seen store load failed, starting empty")
		return store
	}
	for _, key := range keys {
		store.set.add(NormalizeKey(key))
	}
	if evicted := len(keys) - store.set.len(); evicted > 0 {
		store.dirty = true
	}

	logger.Info().
		Str("backend", backend.Describe()).
		Int("entries", store.set.len()).
		Msg("seen store loaded")
	return store
}

// Has reports whether the normalized form of link has been marked.
func (s *Store) Has(link string) bool {
	key := NormalizeKey(link)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.has(key)
}

// Mark records link. Marking an already-present link is a no-op.
func (s *Store) Mark(link string) {
	key := NormalizeKey(link)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set.has(key) {
		return
	}
	if evicted := s.set.add(key); evicted > 0 {
		s.logger.Debug().Int("evicted", evicted).Int("max_size", s.set.maxSize).Msg("seen store evicted oldest keys")
	}
	s.dirty = true
}

// Flush writes the set to the backend. Errors are logged and returned; the
// caller may retry.
func (s *Store) Flush(ctx context.Context) error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("seen store has no backend")
	}
	s.mu.Lock()
	keys := s.set.keys()
	s.mu.Unlock()

	if err := s.backend.Save(ctx, keys); err != nil {
		s.logger.Error().Err(err).Str("backend", s.backend.Describe()).Int("entries", len(keys)).Msg("seen store flush failed")
		return fmt.Errorf("flush seen store: %w", err)
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	s.logger.Debug().Str("backend", s.backend.Describe()).Int("entries", len(keys)).Msg("seen store flushed")
	return nil
}

// Dirty reports whether there are marks not yet flushed.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.len()
}

// Keys returns the stored keys, oldest first.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.keys()
}

func (s *Store) MaxSize() int {
	return s.set.maxSize
}
