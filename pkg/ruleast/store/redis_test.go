package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisAddr returns the address of a test Redis server or skips the test.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("RULEAST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RULEAST_REDIS_ADDR not set")
	}
	return addr
}

// TestRedisStore runs contract tests against RedisStore.
func TestRedisStore(t *testing.T) {
	addr := redisAddr(t)

	factory := func(t *testing.T) store.Store {
		// A fresh prefix isolates every subtest on the shared server.
		prefix := "ruleast-test:" + uuid.NewString() + ":"
		s, err := store.NewRedisStore(store.RedisOptions{Addr: addr, KeyPrefix: prefix})
		require.NoError(t, err)
		require.NoError(t, s.Ping(context.Background()))
		return s
	}
	storeContractTest(t, "RedisStore", factory)
}

func TestNewRedisStore_RequiresAddr(t *testing.T) {
	_, err := store.NewRedisStore(store.RedisOptions{})
	assert.ErrorContains(t, err, "store.redis.addr")
}
