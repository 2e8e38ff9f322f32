package session

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"milk2meat/internal/config"
	"time"
)

const revokedKeyPrefix = "milk2meat:revoked:"

// TokenStore remembers revoked token ids until the tokens would have expired anyway.
type TokenStore interface {
	Revoke(ctx context.Context, tokenId string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenId string) (bool, error)
}

type RedisTokenStore struct {
	Client *redis.Client
	now    func() time.Time
}

var _ TokenStore = &RedisTokenStore{}

func NewRedisTokenStore(c *config.Configuration) *RedisTokenStore {
	return &RedisTokenStore{
		Client: redis.NewClient(&redis.Options{
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
		now: time.Now,
	}
}

// Connect verifies the connection.
func (r *RedisTokenStore) Connect(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func revokedKey(tokenId string) string {
	return revokedKeyPrefix + tokenId
}

// Revoke marks tokenId as revoked. Tokens that have already expired are not stored.
func (r *RedisTokenStore) Revoke(ctx context.Context, tokenId string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	if err := r.Client.Set(ctx, revokedKey(tokenId), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token %s: %w", tokenId, err)
	}
	return nil
}

func (r *RedisTokenStore) IsRevoked(ctx context.Context, tokenId string) (bool, error) {
	err := r.Client.Get(ctx, revokedKey(tokenId)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up token %s: %w", tokenId, err)
	}
	return true, nil
}

// NullTokenStore never revokes anything. Used when Redis is not configured.
type NullTokenStore struct{}

var _ TokenStore = NullTokenStore{}

func (n NullTokenStore) Revoke(ctx context.Context, tokenId string, expiresAt time.Time) error {
	return nil
}

func (n NullTokenStore) IsRevoked(ctx context.Context, tokenId string) (bool, error) {
	return false, nil
}
