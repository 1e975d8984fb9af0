package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventscout/internal/store"
)

// DuplicateError is the reject outcome of the gate. It is a filter result,
// not a failure: the existing record is left untouched.
type DuplicateError struct {
	CanonicalURL string
	Reason       string // "url" or "fingerprint"
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate (%s): %s", e.Reason, e.CanonicalURL)
}

// Gate decides accept/reject for candidate extractions. Acceptance is
// at-most-once per canonical URL: callers hold the per-URL lock across
// the check-extract-insert window so concurrent workers on the same
// canonical URL serialize instead of double-inserting.
type Gate struct {
	store store.Store
	seen  *seenSet

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGate creates a gate backed by the given store.
func NewGate(st store.Store) *Gate {
	return &Gate{
		store: st,
		seen:  newSeenSet(10000, 24*time.Hour),
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-canonical-URL lock and returns its unlock func.
func (g *Gate) Lock(canonicalURL string) func() {
	g.mu.Lock()
	lock, ok := g.locks[canonicalURL]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[canonicalURL] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// CheckURL rejects canonical URLs already accepted in this batch or
// already present in the store. Callers must hold the per-URL lock.
func (g *Gate) CheckURL(ctx context.Context, canonicalURL string) error {
	if g.seen.Seen(canonicalURL) {
		return &DuplicateError{CanonicalURL: canonicalURL, Reason: "url"}
	}

	_, found, err := g.store.FindByCanonicalURL(ctx, canonicalURL)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if found {
		// remember the hit so the next check skips the store round-trip
		g.seen.Mark(canonicalURL)
		return &DuplicateError{CanonicalURL: canonicalURL, Reason: "url"}
	}
	return nil
}

// CheckFingerprint is the secondary name+date check, applied only after the
// URL check passes. An empty fingerprint always passes.
func (g *Gate) CheckFingerprint(ctx context.Context, canonicalURL, fingerprint string) error {
	if fingerprint == "" {
		return nil
	}
	has, err := g.store.HasFingerprint(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("fingerprint lookup: %w", err)
	}
	if has {
		return &DuplicateError{CanonicalURL: canonicalURL, Reason: "fingerprint"}
	}
	return nil
}

// Accept marks a canonical URL as taken for the rest of the batch.
// Callers must hold the per-URL lock.
func (g *Gate) Accept(canonicalURL string) {
	g.seen.Mark(canonicalURL)
}
