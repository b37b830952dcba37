package oauth2

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "jwtgate:oauth:"

// TokenCache memoizes verified access-token identities in Redis so repeat
// requests within a token's lifetime skip the provider round-trip. Keys are
// hashed: raw bearer tokens never reach Redis.
type TokenCache struct {
	client *redis.Client
	prefix string
}

// NewTokenCache wraps a Redis client. prefix may be empty to use the default.
func NewTokenCache(client *redis.Client, prefix string) *TokenCache {
	if prefix == "" {
		prefix = cachePrefix
	}
	return &TokenCache{client: client, prefix: prefix}
}

// Get returns the cached identity for an access token, if present. Cache
// errors degrade to a miss: the caller just pays the provider call again.
func (c *TokenCache) Get(ctx context.Context, accessToken string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	email, err := c.client.Get(ctx, c.key(accessToken)).Result()
	if err != nil || email == "" {
		return "", false
	}
	return email, true
}

// Set stores a verified identity for the token's remaining lifetime.
func (c *TokenCache) Set(ctx context.Context, accessToken, email string, ttl time.Duration) {
	if c == nil || c.client == nil || ttl <= 0 {
		return
	}
	_ = c.client.Set(ctx, c.key(accessToken), email, ttl).Err()
}

func (c *TokenCache) key(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return c.prefix + hex.EncodeToString(sum[:])
}
