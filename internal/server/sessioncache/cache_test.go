package sessioncache

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetExpire(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "u-1", mood.CapabilitySupported))
	c, ok, err := m.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, mood.CapabilitySupported, c)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire")
}

func TestRedis_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := NewRedis(client, time.Minute)
	_, _, err := r.Get(context.Background(), "u-1")
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), "u-1", mood.CapabilitySupported))
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
