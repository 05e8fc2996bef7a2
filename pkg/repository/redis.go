package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
)

const claimPending = "pending"

type RedisRepository struct {
	client         *redis.Client
	ttl            time.Duration
	idempotencyTTL time.Duration
}

// NewRedisRepository creates a new Redis-backed session store.
func NewRedisRepository(cfg *config.RedisConfig, sessions *config.SessionConfig) *RedisRepository {
	return NewRedisRepositoryWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}), sessions)
}

func NewRedisRepositoryWithClient(client *redis.Client, sessions *config.SessionConfig) *RedisRepository {
	return &RedisRepository{
		client:         client,
		ttl:            sessions.TTL,
		idempotencyTTL: sessions.IdempotencyTTL,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) setJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func cartKey(sessionID string) string     { return fmt.Sprintf("cart:%s", sessionID) }
func identityKey(sessionID string) string { return fmt.Sprintf("identity:%s", sessionID) }
func checkoutKey(sessionID string) string { return fmt.Sprintf("checkout:%s", sessionID) }
func claimKey(key string) string          { return fmt.Sprintf("idempotency:%s", key) }

func (r *RedisRepository) GetCart(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return models.DecodeCart(data)
}

func (r *RedisRepository) SaveCart(ctx context.Context, sessionID string, entries []models.CartEntry) error {
	if len(entries) == 0 {
		return r.ClearCart(ctx, sessionID)
	}
	data, err := models.EncodeCart(entries)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cartKey(sessionID), data, r.ttl).Err()
}

func (r *RedisRepository) ClearCart(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKey(sessionID)).Err()
}

func (r *RedisRepository) GetIdentity(ctx context.Context, sessionID string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.getJSON(ctx, identityKey(sessionID), &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *RedisRepository) SaveIdentity(ctx context.Context, sessionID string, identity *models.Identity) error {
	return r.setJSON(ctx, identityKey(sessionID), identity, r.ttl)
}

func (r *RedisRepository) DeleteIdentity(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, identityKey(sessionID)).Err()
}

func (r *RedisRepository) GetCheckoutSnapshot(ctx context.Context, sessionID string) (*models.CheckoutSnapshot, error) {
	var snapshot models.CheckoutSnapshot
	if err := r.getJSON(ctx, checkoutKey(sessionID), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *RedisRepository) SaveCheckoutSnapshot(ctx context.Context, sessionID string, snapshot *models.CheckoutSnapshot) error {
	return r.setJSON(ctx, checkoutKey(sessionID), snapshot, r.ttl)
}

func (r *RedisRepository) ClaimIdempotencyKey(ctx context.Context, key string) (bool, string, error) {
	ok, err := r.client.SetNX(ctx, claimKey(key), claimPending, r.idempotencyTTL).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}

	value, err := r.client.Get(ctx, claimKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; let the caller retry.
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	if value == claimPending {
		value = ""
	}
	return false, value, nil
}

func (r *RedisRepository) CompleteIdempotencyKey(ctx context.Context, key, orderID string) error {
	return r.client.Set(ctx, claimKey(key), orderID, r.idempotencyTTL).Err()
}

func (r *RedisRepository) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return r.client.Del(ctx, claimKey(key)).Err()
}
