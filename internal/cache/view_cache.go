package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const viewCachePrefix = "cache:view:"

// ViewCache stores computed read models keyed by the store generation they
// were computed from. A write advances the generation, so stale entries are
// never read again and simply expire.
type ViewCache struct {
	store Store
	ttl   time.Duration
}

func NewViewCache(store Store, ttl time.Duration) *ViewCache {
	return &ViewCache{store: store, ttl: ttl}
}

// Key builds the cache key for a view. scope distinguishes callers whose
// role scope changes the result; request is hashed as JSON.
func Key(generation int64, scope string, request any) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return fmt.Sprintf("%s%d:%s:%s", viewCachePrefix, generation, scope, hex.EncodeToString(sum[:])), nil
}

// Get decodes the cached view into dst and reports whether it was found.
func (c *ViewCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ViewCache) Set(ctx context.Context, key string, view any) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, data, c.ttl)
}
