package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/medipro/backend/domain"
)

// IdentityCache fronts the user directory with a short-lived Redis cache
// keyed by principal id. Authorization freshness is bounded by the TTL;
// Invalidate is called on sign-out and on admin mutations.
type IdentityCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewIdentityCache creates a Redis-backed identity cache.
func NewIdentityCache(client *redislib.Client, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &IdentityCache{
		client: client,
		prefix: "identity:",
		ttl:    ttl,
	}
}

// Get returns the cached identity record, or domain.ErrUserNotFound on a
// cache miss.
func (c *IdentityCache) Get(ctx context.Context, principalID string) (*domain.User, error) {
	result, err := c.client.Get(ctx, c.key(principalID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(result), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Put stores the identity record under its principal id.
func (c *IdentityCache) Put(ctx context.Context, user *domain.User) error {
	if user == nil || user.PrincipalID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(user.PrincipalID), payload, c.ttl).Err()
}

// Invalidate drops the cached record for a principal.
func (c *IdentityCache) Invalidate(ctx context.Context, principalID string) error {
	return c.client.Del(ctx, c.key(principalID)).Err()
}

func (c *IdentityCache) key(principalID string) string {
	return fmt.Sprintf("%s%s", c.prefix, principalID)
}
