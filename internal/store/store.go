package store

import (
	"context"

	"eventscout/internal/model"
)

// Store persists accepted event records and answers dedup lookups.
type Store interface {
	// InsertEvent writes an accepted record. Inserting a canonical URL that
	// already exists is an error; callers go through the dedup gate first.
	InsertEvent(ctx context.Context, ev *model.Event) error

	// FindByCanonicalURL returns the stored record for a canonical URL.
	FindByCanonicalURL(ctx context.Context, canonicalURL string) (*model.Event, bool, error)

	// HasFingerprint reports whether any stored record shares the
	// name+date fingerprint.
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
