package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory returns a bounded in-process LRU. Entries expire after ttl; the
// ttl passed to Set is ignored because expiry is fixed per cache.
func NewMemory(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 500
	}
	return &memoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.lru.Remove(key)
		return false, nil
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	c.lru.Add(key, raw)
	return nil
}
