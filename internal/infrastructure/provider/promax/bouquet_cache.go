package promax

import (
	"context"
	"sync"
	"time"

	"github.com/jsiptv/mobipay/internal/domain/entity"
)

// bouquetCache is a single-slot TTL cache for the catalog. The mutex covers
// the whole read-or-refresh so concurrent callers cannot trigger duplicate
// refetches.
type bouquetCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	items   []entity.Bouquet
	expires time.Time
}

func newBouquetCache(ttl time.Duration) *bouquetCache {
	return &bouquetCache{ttl: ttl}
}

func (c *bouquetCache) get(ctx context.Context, fetch func(context.Context) ([]entity.Bouquet, error)) ([]entity.Bouquet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items != nil && time.Now().Before(c.expires) {
		return c.items, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		// The stale entry is not served on a failed refetch.
		return nil, err
	}

	c.items = items
	c.expires = time.Now().Add(c.ttl)
	return items, nil
}
