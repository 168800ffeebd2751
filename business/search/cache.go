package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"mmDiagnosis/domain"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores merged marketplace results by round signature. Entries are
// immutable once written and simply expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.SearchItem, bool, error)
	Set(ctx context.Context, key string, items []domain.SearchItem, ttl time.Duration) error
}

type signature struct {
	Queries  []string `json:"q"`
	MinPrice int      `json:"min"`
	MaxPrice int      `json:"max"`
}

// CacheKey hashes the full query signature: every keyword in order plus
// the price bounds.
func CacheKey(queries []string, band *domain.BudgetBand) string {
	sig := signature{Queries: queries}
	if band != nil {
		sig.MinPrice, sig.MaxPrice = band.Bounds()
	}

	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Sprintf("search:%v", sig)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("search:%x", hash[:16])
}

const defaultMemoryCacheSize = 1000

type memoryEntry struct {
	items     []domain.SearchItem
	expiresAt time.Time
}

// MemoryCache is the in-process Cache used when no Redis is configured. It
// holds at most size signatures and evicts the least recently used one
// first; maxTTL is the longest any entry is kept, whatever Set asks for.
type MemoryCache struct {
	// serializes the check-then-add in Set
	mu  sync.Mutex
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

func NewMemoryCache(size int, maxTTL time.Duration) *MemoryCache {
	if size <= 0 {
		size = defaultMemoryCacheSize
	}

	return &MemoryCache{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]domain.SearchItem, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context error: %w", err)
	}

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, still := c.lru.Peek(key); still && cur.expiresAt.Equal(e.expiresAt) {
			c.lru.Remove(key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return cloneItems(e.items), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, items []domain.SearchItem, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	// first write wins until it expires
	if e, ok := c.lru.Peek(key); ok && !now.After(e.expiresAt) {
		return nil
	}
	c.lru.Add(key, memoryEntry{items: cloneItems(items), expiresAt: now.Add(ttl)})

	return nil
}

// Len reports how many signatures are held, expired ones included until
// they are swept.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

func cloneItems(in []domain.SearchItem) []domain.SearchItem {
	out := make([]domain.SearchItem, len(in))
	copy(out, in)
	return out
}

var _ Cache = (*MemoryCache)(nil)
