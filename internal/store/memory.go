package store

import (
	"context"
	"fmt"
	"sync"

	"eventscout/internal/model"
)

// MemoryStore is the in-process Store used for tests and --no-save runs.
type MemoryStore struct {
	mu           sync.RWMutex
	byURL        map[string]*model.Event
	fingerprints map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byURL:        make(map[string]*model.Event),
		fingerprints: make(map[string]bool),
	}
}

func (s *MemoryStore) InsertEvent(ctx context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURL[ev.CanonicalURL]; exists {
		return fmt.Errorf("insert event: canonical URL already stored: %s", ev.CanonicalURL)
	}

	copied := *ev
	s.byURL[ev.CanonicalURL] = &copied
	if fp := ev.Fingerprint(); fp != "" {
		s.fingerprints[fp] = true
	}
	return nil
}

func (s *MemoryStore) FindByCanonicalURL(ctx context.Context, canonicalURL string) (*model.Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.byURL[canonicalURL]
	if !ok {
		return nil, false, nil
	}
	copied := *ev
	return &copied, true, nil
}

func (s *MemoryStore) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprints[fingerprint], nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byURL), nil
}

func (s *MemoryStore) Close() error { return nil }
