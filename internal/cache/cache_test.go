package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func TestRememberLoadsOnce(t *testing.T) {
	c := &memoryCache{data: map[string][]byte{}}
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"support", "billing"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Remember(context.Background(), c, zap.NewNop(), "mailboxes", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"support", "billing"}, got)
	}
	assert.Equal(t, 1, calls)
}

func TestRememberPropagatesLoadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Remember(context.Background(), Noop{}, zap.NewNop(), "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRememberSurvivesUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	c := NewRedisCache(client, "canvas:")
	got, err := Remember(context.Background(), c, zap.NewNop(), "fields", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestNewRedisCacheWithoutClientIsNoop(t *testing.T) {
	assert.IsType(t, Noop{}, NewRedisCache(nil, "x"))
}
