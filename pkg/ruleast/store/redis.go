package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr      string
	DB        int
	Username  string
	Password  string
	KeyPrefix string
	// Timeout bounds every individual Redis round trip.
	Timeout time.Duration
}

// RedisStore persists rules in Redis. Each rule lives under
// "<prefix>rule:<id>" and a sorted set "<prefix>rules" indexes IDs by
// creation time.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
	prefix  string
}

// NewRedisStore builds a Redis-backed Store.
// The connection is established lazily; call Ping to verify reachability.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("store.redis.addr is required for the redis driver")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 200 * time.Millisecond // default
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		DB:           opts.DB,
		Username:     opts.Username,
		Password:     opts.Password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisStore{
		client:  client,
		timeout: timeout,
		prefix:  opts.KeyPrefix,
	}, nil
}

func (s *RedisStore) ruleKey(id string) string {
	return s.prefix + "rule:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "rules"
}

// Save implements Store. Overwriting keeps the original creation time.
func (s *RedisStore) Save(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return ErrEmptyID
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	score := float64(time.Now().UTC().UnixMicro())
	_, err := s.client.TxPipelined(writeCtx, func(pipe redis.Pipeliner) error {
		pipe.Set(writeCtx, s.ruleKey(id), data, 0)
		// NX leaves the score of an existing member untouched.
		pipe.ZAddNX(writeCtx, s.indexKey(), redis.Z{Score: score, Member: id})
		return nil
	})
	if err != nil {
		return redisErr("save", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) ([]byte, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(readCtx, s.ruleKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, redisErr("get", err)
	}
	return val, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	members, err := s.client.ZRangeWithScores(readCtx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, redisErr("list", err)
	}

	infos := make([]Info, 0, len(members))
	if len(members) == 0 {
		return infos, nil
	}

	pipe := s.client.Pipeline()
	lens := make([]*redis.IntCmd, len(members))
	for i, m := range members {
		lens[i] = pipe.StrLen(readCtx, s.ruleKey(memberID(m.Member)))
	}
	if _, err := pipe.Exec(readCtx); err != nil {
		return nil, redisErr("list", err)
	}

	for i, m := range members {
		size := lens[i].Val()
		if size == 0 {
			// Value expired or was removed outside the store.
			continue
		}
		infos = append(infos, Info{
			ID:        memberID(m.Member),
			CreatedAt: time.UnixMicro(int64(m.Score)).UTC(),
			Size:      size,
		})
	}
	return infos, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.TxPipelined(writeCtx, func(pipe redis.Pipeliner) error {
		pipe.Del(writeCtx, s.ruleKey(id))
		pipe.ZRem(writeCtx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return redisErr("delete", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}

// Close releases Redis resources.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

func redisErr(op string, err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrStoreClosed
	}
	return fmt.Errorf("redis %s failed: %w: %w", op, ErrUnavailable, err)
}

func memberID(m any) string {
	switch v := m.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
