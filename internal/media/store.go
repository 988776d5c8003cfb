package media

import (
	"sync"

	"github.com/zsiec/reel/internal/errors"
	"github.com/zsiec/reel/internal/logger"
)

// Store owns the open source bindings for one editor session. It replaces
// a process-wide registry: the Store is constructed by the host and passed
// by handle into the components that need it.
type Store struct {
	mu      sync.RWMutex
	sources map[string]Source
	logger  logger.Logger
}

// NewStore creates an empty source store.
func NewStore(log logger.Logger) *Store {
	return &Store{
		sources: make(map[string]Source),
		logger:  log,
	}
}

// Add binds a source. Adding an already-bound ID is a conflict.
func (s *Store) Add(src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[src.ID()]; ok {
		return errors.NewConflictError("source " + src.ID() + " is already bound")
	}

	s.sources[src.ID()] = src
	s.logger.WithField("source_id", src.ID()).Debug("Source bound")
	return nil
}

// Get returns the source bound under id.
func (s *Store) Get(id string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	return src, ok
}

// Remove unbinds and closes a source.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	src, ok := s.sources[id]
	delete(s.sources, id)
	s.mu.Unlock()

	if !ok {
		return
	}

	if err := src.Close(); err != nil {
		s.logger.WithError(err).WithField("source_id", id).Warn("Failed to close source")
	}
	s.logger.WithField("source_id", id).Debug("Source unbound")
}

// IDs returns the bound source IDs.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of bound sources.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// Clear closes and unbinds every source.
func (s *Store) Clear() {
	s.mu.Lock()
	sources := s.sources
	s.sources = make(map[string]Source)
	s.mu.Unlock()

	for id, src := range sources {
		if err := src.Close(); err != nil {
			s.logger.WithError(err).WithField("source_id", id).Warn("Failed to close source")
		}
	}
}
