package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/chargewise/charge-finder/internal/translate"
)

// ErrCacheMiss is returned when a key is not found in the cache
var ErrCacheMiss = errors.New("cache miss")

// Entry is a cached translation plus its bookkeeping. Hits and
// LastAccess drive eviction; CreatedAt is kept for inspection.
type Entry struct {
	Query      translate.Query `json:"query"`
	CreatedAt  time.Time       `json:"created_at"`
	LastAccess time.Time       `json:"last_access"`
	Hits       int64           `json:"hits"`
}

// Store is the query cache interface. Keys are content hashes produced
// by Key, so two phrasings that canonicalize identically share an entry.
type Store interface {
	// Get returns the cached query and bumps its hit counter, or
	// ErrCacheMiss.
	Get(ctx context.Context, key string) (translate.Query, error)

	// Put stores the query under key, evicting cold entries if the
	// store is at capacity.
	Put(ctx context.Context, key string, q translate.Query) error

	// Len reports the number of live entries.
	Len(ctx context.Context) (int, error)

	Close() error
}

// Key derives the cache key from canonical text. The hash makes the key
// safe for any backend and independent of text length.
func Key(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
