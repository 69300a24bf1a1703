package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/config"
)

func TestTTLCache_Bytes(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()

	_, ok, err := c.GetBytes(ctx, "prices")
	require.NoError(t, err)
	assert.False(t, ok)

	body := []byte(`{"count":3}`)
	require.NoError(t, c.SetBytes(ctx, "prices", body, time.Minute))
	body[0] = 'X'

	b, ok, err := c.GetBytes(ctx, "prices")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"count":3}`, string(b))
}

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, c.SetBytes(ctx, "forever", []byte("w"), 0))
	now = now.Add(2 * time.Second)

	_, ok, _ := c.GetBytes(ctx, "short")
	assert.False(t, ok)
	assert.NotContains(t, c.items, "short")

	b, ok, _ := c.GetBytes(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, "w", string(b))
}

func TestTTLCache_Limit(t *testing.T) {
	c := NewTTLCache()
	c.limit = 3
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.SetBytes(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
	}
	assert.LessOrEqual(t, len(c.items), 3)
	_, ok, _ := c.GetBytes(ctx, "k4")
	assert.True(t, ok)
}

func TestNew_PicksBackend(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &TTLCache{}, New(cfg))

	cfg.Cache.Redis.Enabled = true
	rc, ok := New(cfg).(*RedisCache)
	require.True(t, ok)
	assert.NoError(t, rc.Close())
}
