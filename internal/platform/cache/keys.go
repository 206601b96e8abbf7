package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EntityKey is the cache key for a full entity/link-read response, keyed by
// chain id. Mutations must invalidate both the chain's canonical id and the
// previous latest row's id (§9).
func EntityKey(chainID string) string {
	return fmt.Sprintf("entity:%s", chainID)
}

// PrincipalsKey is the cache key for a resolved principal closure (§4.4).
func PrincipalsKey(userID string) string {
	return fmt.Sprintf("principals:%s", userID)
}

// GetJSON fetches key and unmarshals it into dst, returning false on a miss
// or a corrupt cache entry (treated the same as a miss).
func GetJSON(ctx context.Context, store KVStore, key string, dst interface{}) bool {
	raw, ok := store.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	return true
}

// SetJSON marshals value and stores it under key with the given TTL.
// Marshal failures are swallowed: a cache write is never allowed to fail
// the request that triggered it (§7, §9).
func SetJSON(ctx context.Context, store KVStore, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	store.Set(ctx, key, raw, ttl)
}
