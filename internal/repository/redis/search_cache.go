package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mmDiagnosis/business/search"
	"mmDiagnosis/domain"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const searchKeyPrefix = "mmdiag:"

// SearchCache keeps merged marketplace results in Redis so replicas share
// them.
type SearchCache struct {
	client *redis.Client
}

func NewSearchCache(client *redis.Client) *SearchCache {
	return &SearchCache{client: client}
}

func (r *SearchCache) Get(ctx context.Context, key string) ([]domain.SearchItem, bool, error) {
	val, err := r.client.Get(ctx, searchKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get search results from Redis: %w", err)
	}

	var items []domain.SearchItem
	if err := json.Unmarshal(val, &items); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal search results: %w", err)
	}

	return items, true, nil
}

// Set writes only when the key is absent so a live entry is never replaced.
func (r *SearchCache) Set(ctx context.Context, key string, items []domain.SearchItem, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	if err := r.client.SetNX(ctx, searchKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store search results in Redis: %w", err)
	}

	return nil
}

var _ search.Cache = (*SearchCache)(nil)
