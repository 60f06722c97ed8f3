package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itera/chatbot-service/internal/core/cache"
	rediscache "github.com/itera/chatbot-service/internal/infrastructure/cache/redis"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, cache.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rediscache.NewClient(rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: time.Hour,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return mr, client
}

func TestClient_SetAndGet(t *testing.T) {
	_, client := setupMiniredis(t)
	ctx := context.Background()

	err := client.Set(ctx, "session:chat_1", []byte("payload"), time.Minute)
	require.NoError(t, err)

	result, err := client.Get(ctx, "session:chat_1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("payload"), result)
}

func TestClient_DefaultTTL(t *testing.T) {
	mr, client := setupMiniredis(t)

	require.NoError(t, client.Set(context.Background(), "aicache:ciao_default", []byte("Ciao!"), 0))

	assert.Equal(t, time.Hour, mr.TTL("aicache:ciao_default"))
}

func TestClient_GetNotFound(t *testing.T) {
	_, client := setupMiniredis(t)

	result, err := client.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_DeletePattern(t *testing.T) {
	mr, client := setupMiniredis(t)
	ctx := context.Background()
	_ = client.Set(ctx, "perf:s1:1", []byte("a"), time.Minute)
	_ = client.Set(ctx, "perf:s1:2", []byte("b"), time.Minute)
	_ = client.Set(ctx, "session:s1", []byte("c"), time.Minute)

	deleted, err := client.DeletePattern(ctx, "perf:*")

	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"session:s1"}, mr.Keys())
}

func TestClient_TTLExpiration(t *testing.T) {
	mr, client := setupMiniredis(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "session:old", []byte("x"), time.Second))

	mr.FastForward(2 * time.Second)

	result, err := client.Get(ctx, "session:old")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_Delete(t *testing.T) {
	_, client := setupMiniredis(t)
	ctx := context.Background()
	_ = client.Set(ctx, "k", []byte("v"), time.Minute)

	deleted, err := client.Delete(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.Delete(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, deleted)
}

func TestClient_KeyPrefix(t *testing.T) {
	// Arrange
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rediscache.NewClient(rediscache.Config{
		Host:      mr.Host(),
		Port:      mr.Port(),
		KeyPrefix: "itera:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	// Act
	require.NoError(t, client.Set(ctx, cache.Key(cache.NamespaceSession, "chat_1"), []byte("x"), time.Minute))
	require.NoError(t, client.Set(ctx, cache.Key(cache.NamespacePerformance, "chat_1", "1"), []byte("y"), time.Minute))
	deleted, err := client.DeletePattern(ctx, "perf:*")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, []string{"itera:session:chat_1"}, mr.Keys())
	value, err := client.Get(ctx, "session:chat_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), value)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	client, err := rediscache.NewClient(rediscache.Config{Host: host, Port: port})

	assert.Error(t, err)
	assert.Nil(t, client)
}
