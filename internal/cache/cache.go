package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores fetched page bodies keyed by canonical URL hash.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a canonical URL.
func Key(canonicalURL string) string {
	hash := sha256.Sum256([]byte(canonicalURL))
	return "eventscout:v1:" + hex.EncodeToString(hash[:])
}
