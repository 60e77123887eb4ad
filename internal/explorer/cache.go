package explorer

import (
	"context"
	"strings"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCacheTTL bounds how long an identical call is served from memory.
	DefaultCacheTTL = 30 * time.Second
	// DefaultCacheSize bounds the number of (credential, address) entries.
	DefaultCacheSize = 64
)

type cacheKey struct {
	credential string
	address    string
}

func keyFor(credential, address string) cacheKey {
	return cacheKey{credential: credential, address: strings.ToLower(address)}
}

// CachedSource memoizes successful fetches per (credential, address) for a
// fixed TTL. Failures are never cached. Returned slices are shared between
// callers and must be treated as read-only.
type CachedSource struct {
	next    Source
	entries *expirable.LRU[cacheKey, chain.RawRecords]
	metrics *metrics.Metrics
}

// NewCachedSource wraps next with a bounded TTL cache. Non-positive size or
// ttl fall back to the defaults.
func NewCachedSource(next Source, size int, ttl time.Duration, m *metrics.Metrics) *CachedSource {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{
		next:    next,
		entries: expirable.NewLRU[cacheKey, chain.RawRecords](size, nil, ttl),
		metrics: m,
	}
}

// Fetch serves from the cache when a live entry exists, otherwise calls the
// wrapped source and stores a successful result.
func (s *CachedSource) Fetch(ctx context.Context, credential, address string) (chain.RawRecords, error) {
	key := keyFor(credential, address)
	if recs, ok := s.entries.Get(key); ok {
		s.metrics.ObserveCache(true)
		return recs, nil
	}
	s.metrics.ObserveCache(false)

	recs, err := s.next.Fetch(ctx, credential, address)
	if err != nil {
		return nil, err
	}
	s.entries.Add(key, recs)
	return recs, nil
}

// Invalidate drops the entry for (credential, address).
func (s *CachedSource) Invalidate(credential, address string) {
	s.entries.Remove(keyFor(credential, address))
}

// Purge drops every entry.
func (s *CachedSource) Purge() {
	s.entries.Purge()
}

// Len returns the number of live entries.
func (s *CachedSource) Len() int {
	return s.entries.Len()
}
