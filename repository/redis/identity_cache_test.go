package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipro/backend/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewIdentityCache(client, ttl), mr
}

func TestIdentityCachePutAndGet(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	user := &domain.User{
		ID:          "usr-1",
		PrincipalID: "p-1",
		Email:       "doc@clinic.test",
		Role:        domain.RoleDoctor,
		Active:      true,
	}
	require.NoError(t, cache.Put(ctx, user))

	got, err := cache.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, domain.RoleDoctor, got.Role)
	assert.True(t, got.Active)
}

func TestIdentityCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	_, err := cache.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentityCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	user := &domain.User{ID: "usr-1", PrincipalID: "p-1", Role: domain.RoleAdmin, Active: true}
	require.NoError(t, cache.Put(ctx, user))
	require.NoError(t, cache.Invalidate(ctx, "p-1"))

	_, err := cache.Get(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentityCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	user := &domain.User{ID: "usr-1", PrincipalID: "p-1", Role: domain.RoleDoctor, Active: true}
	require.NoError(t, cache.Put(ctx, user))

	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentityCacheRejectsEmptyPrincipal(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	err := cache.Put(context.Background(), &domain.User{ID: "usr-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
