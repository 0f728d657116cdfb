package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tejaspachgade2315/Voosh/internal/platform/ctxutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/envutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

type redisStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewRedisStore connects to the address in REDIS_ADDR. The dial is bounded by
// REDIS_DIAL_TIMEOUT_SECONDS so a missing server fails fast instead of
// hanging process start.
func NewRedisStore(log *logger.Logger) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	dialTimeout := envutil.Seconds("REDIS_DIAL_TIMEOUT_SECONDS", 2*time.Second)
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{
		log: log.With("service", "RedisStore"),
		rdb: rdb,
	}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctxutil.Default(ctx), key).Result()
	if err != nil {
		return "", translateRedisErr(err)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return translateRedisErr(s.rdb.Set(ctxutil.Default(ctx), key, value, ttl).Err())
}

func (s *redisStore) Append(ctx context.Context, key string, values ...string) (int64, error) {
	if len(values) == 0 {
		return s.rdb.LLen(ctxutil.Default(ctx), key).Result()
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	n, err := s.rdb.RPush(ctxutil.Default(ctx), key, args...).Result()
	if err != nil {
		return 0, translateRedisErr(err)
	}
	return n, nil
}

func (s *redisStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.rdb.LRange(ctxutil.Default(ctx), key, start, stop).Result()
	if err != nil {
		return nil, translateRedisErr(err)
	}
	return vals, nil
}

func (s *redisStore) RefreshTTL(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return s.Exists(ctx, key)
	}
	ok, err := s.rdb.Expire(ctxutil.Default(ctx), key, ttl).Result()
	if err != nil {
		return false, translateRedisErr(err)
	}
	return ok, nil
}

func (s *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctxutil.Default(ctx), key).Result()
	if err != nil {
		return false, translateRedisErr(err)
	}
	return n > 0, nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.rdb.Del(ctxutil.Default(ctx), keys...).Result()
	if err != nil {
		return 0, translateRedisErr(err)
	}
	return n, nil
}

func (s *redisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctxutil.Default(ctx), pattern).Result()
	if err != nil {
		return nil, translateRedisErr(err)
	}
	return keys, nil
}

func (s *redisStore) Backend() string { return "redis" }

func (s *redisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func translateRedisErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.Nil):
		return ErrNotFound
	case strings.HasPrefix(err.Error(), "WRONGTYPE"):
		return ErrWrongType
	default:
		return err
	}
}
