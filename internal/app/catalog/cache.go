package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/luma-mobile/companion-service/internal/app/domain/product"
)

const (
	cacheKey = "luma:catalog"
	cacheTTL = 24 * time.Hour
)

// Cache stores the last successfully loaded catalog in Redis so a restart
// can serve products before the first load completes.
type Cache struct {
	client *redis.Client
}

// NewCache wraps an existing Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Store writes the catalog snapshot.
func (c *Cache) Store(ctx context.Context, products []product.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, data, cacheTTL).Err()
}

// Fetch reads the catalog snapshot. A missing key yields an empty slice.
func (c *Cache) Fetch(ctx context.Context) ([]product.Product, error) {
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var products []product.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}
