package linkx

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 30 * time.Minute
)

type cacheEntry struct {
	md       Metadata
	storedAt time.Time
}

// CachedFetcher remembers successful fetches for a while. Failures are not
// cached so a later message with the same URL retries.
type CachedFetcher struct {
	next  Fetcher
	cache *lru.Cache[string, cacheEntry]
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	hits   int
	misses int
}

func NewCachedFetcher(next Fetcher, size int, ttl time.Duration) (*CachedFetcher, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create preview cache: %w", err)
	}
	return &CachedFetcher{next: next, cache: c, ttl: ttl, now: time.Now}, nil
}

func (f *CachedFetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	if e, ok := f.cache.Get(rawURL); ok && f.now().Sub(e.storedAt) < f.ttl {
		f.count(true)
		return e.md, nil
	}
	f.count(false)

	md, err := f.next.Fetch(ctx, rawURL)
	if err != nil {
		return Metadata{}, err
	}
	f.cache.Add(rawURL, cacheEntry{md: md, storedAt: f.now()})
	return md, nil
}

// Stats returns cache hit and miss counts.
func (f *CachedFetcher) Stats() (hits, misses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits, f.misses
}

func (f *CachedFetcher) count(hit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}
