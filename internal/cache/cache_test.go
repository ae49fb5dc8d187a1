// internal/cache/cache_test.go
package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-orchestrator/internal/common/database"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

func cacheForTest(t *testing.T, ttls map[string]int) (*ResponseCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return New(client, "resp", ttls, 300*time.Second, logger.NewTestLogger(t)), mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, _ := cacheForTest(t, map[string]int{"weather": 600})
	ctx := context.Background()

	resp := models.Response{
		RequestID:  "req-1",
		Answer:     "Sunny, 22 degrees.",
		Category:   models.CategoryWeather,
		Confidence: 0.9,
		Citations:  []string{"https://wx.example.com"},
	}
	c.Set(ctx, models.CategoryWeather, "what's the weather in berlin", resp)

	got, found := c.Get(ctx, models.CategoryWeather, "what's the weather in berlin")
	require.True(t, found)
	assert.Equal(t, "Sunny, 22 degrees.", got.Answer)
	assert.True(t, got.Cached, "cache hits are marked")
	assert.Equal(t, resp.Citations, got.Citations)
}

func TestCache_Miss(t *testing.T) {
	c, _ := cacheForTest(t, nil)

	_, found := c.Get(context.Background(), models.CategoryNews, "never stored")
	assert.False(t, found)
}

func TestCache_ZeroTTLIsNoOp(t *testing.T) {
	c, mr := cacheForTest(t, map[string]int{"device_control": 0})
	ctx := context.Background()

	c.Set(ctx, models.CategoryDeviceControl, "turn on the light", models.Response{Answer: "done"})

	assert.Empty(t, mr.Keys(), "ttl 0 must not store anything")

	_, found := c.Get(ctx, models.CategoryDeviceControl, "turn on the light")
	assert.False(t, found)
}

func TestCache_ExpiryEnforced(t *testing.T) {
	c, mr := cacheForTest(t, map[string]int{"news": 60})
	ctx := context.Background()

	c.Set(ctx, models.CategoryNews, "latest headlines", models.Response{Answer: "strike ends"})

	_, found := c.Get(ctx, models.CategoryNews, "latest headlines")
	require.True(t, found)

	mr.FastForward(61 * time.Second)

	_, found = c.Get(ctx, models.CategoryNews, "latest headlines")
	assert.False(t, found, "entries older than ttl are misses")
}

func TestCache_KeyShape(t *testing.T) {
	c, _ := cacheForTest(t, nil)

	key := c.Key(models.CategoryWeather, "what's the weather in berlin")
	assert.Regexp(t, `^resp:weather:[0-9a-f]{16}$`, key)

	// distinct queries hash to distinct keys
	other := c.Key(models.CategoryWeather, "what's the weather in paris")
	assert.NotEqual(t, key, other)
}

func TestCache_RedisDownDegradesToMiss(t *testing.T) {
	c, mr := cacheForTest(t, map[string]int{"weather": 600})
	ctx := context.Background()

	c.Set(ctx, models.CategoryWeather, "query", models.Response{Answer: "a"})
	mr.Close()

	_, found := c.Get(ctx, models.CategoryWeather, "query")
	assert.False(t, found)

	// writes after the outage must not panic or error the request path
	c.Set(ctx, models.CategoryWeather, "query", models.Response{Answer: "b"})
}

func TestCache_SetUsesCategoryTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(&database.RedisClient{Client: db}, "resp", map[string]int{"news": 120}, 300*time.Second, logger.NewNoOpLogger())

	resp := models.Response{Answer: "strike ends"}
	payload, err := json.Marshal(resp)
	require.NoError(t, err)

	key := c.Key(models.CategoryNews, "latest headlines")
	mock.ExpectSet(key, payload, 120*time.Second).SetVal("OK")

	c.Set(context.Background(), models.CategoryNews, "latest headlines", resp)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_ApplyConfigSwapsTTLs(t *testing.T) {
	c, mr := cacheForTest(t, map[string]int{"weather": 600})
	ctx := context.Background()

	c.ApplyConfig(models.RemoteConfig{CacheTTLSeconds: map[string]int{"weather": 0}})

	c.Set(ctx, models.CategoryWeather, "query", models.Response{Answer: "a"})
	assert.Empty(t, mr.Keys())
}
