package session

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"milk2meat/internal/config"
	"testing"
	"time"
)

func TestRevokedKey(t *testing.T) {
	assert.Equal(t, "milk2meat:revoked:0190a6c2", revokedKey("0190a6c2"))
}

func TestRedisTokenStore_RevokeExpiredTokenSkipsRedis(t *testing.T) {
	c := &config.Configuration{}
	// nothing listens here; an attempted write would fail
	c.Redis.Addr = "127.0.0.1:1"

	store := NewRedisTokenStore(c)
	defer store.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	err := store.Revoke(context.Background(), "0190a6c2", now.Add(-time.Minute))
	require.NoError(t, err)
}

func TestNewRedisTokenStore(t *testing.T) {
	c := &config.Configuration{}
	c.Redis.Addr = "redis:6379"
	c.Redis.DB = 2

	store := NewRedisTokenStore(c)
	defer store.Close()

	assert.Equal(t, "redis:6379", store.Client.Options().Addr)
	assert.Equal(t, 2, store.Client.Options().DB)
}

func TestNullTokenStore(t *testing.T) {
	store := NullTokenStore{}
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "0190a6c2", time.Now().Add(time.Hour)))

	revoked, err := store.IsRevoked(ctx, "0190a6c2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
