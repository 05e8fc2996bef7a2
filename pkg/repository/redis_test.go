package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Redis when STOREFRONT_TEST_REDIS_ADDR is set.
func newTestRedis(t *testing.T) *RedisRepository {
	t.Helper()
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}
	r := NewRedisRepositoryWithClient(redis.NewClient(&redis.Options{Addr: addr}), &config.SessionConfig{
		TTL:            time.Minute,
		IdempotencyTTL: time.Minute,
	})
	require.NoError(t, r.Ping(context.Background()))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRedisCartRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	sid := uuid.NewString()

	entries, err := r.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, r.SaveCart(ctx, sid, []models.CartEntry{{ProductID: "p1", Quantity: 3}}))
	entries, err = r.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, []models.CartEntry{{ProductID: "p1", Quantity: 3}}, entries)

	// carts written by older clients carry ids only
	require.NoError(t, r.client.Set(ctx, cartKey(sid), `["p1","p2"]`, time.Minute).Err())
	entries, err = r.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, []models.CartEntry{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 1}}, entries)

	require.NoError(t, r.ClearCart(ctx, sid))
	entries, _ = r.GetCart(ctx, sid)
	assert.Empty(t, entries)
}

func TestRedisIdentityAndClaims(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	sid := uuid.NewString()

	_, err := r.GetIdentity(ctx, sid)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.SaveIdentity(ctx, sid, &models.Identity{ID: "u1", Email: "ada@example.com"}))
	id, err := r.GetIdentity(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", id.Email)

	key := uuid.NewString()
	claimed, _, err := r.ClaimIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, orderID, err := r.ClaimIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, orderID)

	require.NoError(t, r.CompleteIdempotencyKey(ctx, key, "o1"))
	_, orderID, _ = r.ClaimIdempotencyKey(ctx, key)
	assert.Equal(t, "o1", orderID)
	require.NoError(t, r.ReleaseIdempotencyKey(ctx, key))
}
