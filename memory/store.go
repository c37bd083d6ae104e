// Package memory implements chatstream.Store in process memory.
package memory

import (
	"fmt"
	"sync"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.Store = (*Store)(nil)

// Store maps identity keys to the last update rendered under them.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	updates map[string]chatstream.MessageUpdate
	order   []string // keys in first-seen order
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{updates: make(map[string]chatstream.MessageUpdate)}
}

// Put records u under its key. Updates without a key are rejected.
func (s *Store) Put(u chatstream.MessageUpdate) error {
	if u.Key == "" {
		return fmt.Errorf("memory: update has no identity key: %w", chatstream.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.updates[u.Key]; !ok {
		s.order = append(s.order, u.Key)
	}
	s.updates[u.Key] = u
	return nil
}

// Get returns the last update stored under key.
func (s *Store) Get(key string) (chatstream.MessageUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.updates[key]
	if !ok {
		return chatstream.MessageUpdate{}, fmt.Errorf("memory: %q: %w", key, chatstream.ErrNotFound)
	}
	return u, nil
}

// List returns the latest update of every key in first-seen order.
func (s *Store) List() ([]chatstream.MessageUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chatstream.MessageUpdate, len(s.order))
	for i, k := range s.order {
		out[i] = s.updates[k]
	}
	return out, nil
}
