package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/fusebox/cache/serializer"
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/connector"
	"github.com/ceyewan/fusebox/xerrors"
)

type redisCache struct {
	client     *redis.Client
	serializer serializer.Serializer
	prefix     string
	logger     clog.Logger
}

// newRedis 创建 Redis 缓存实例
func newRedis(conn connector.RedisConnector, cfg *Config, logger clog.Logger) (Cache, error) {
	if conn == nil {
		return nil, xerrors.New("redis connector is nil")
	}

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	return &redisCache{
		client:     conn.GetClient(),
		serializer: s,
		prefix:     cfg.Prefix,
		logger:     logger,
	}, nil
}

func (c *redisCache) getKey(key string) string {
	return c.prefix + key
}

// --- 键值（Key-Value） ---

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.getKey(key), data, ttl).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, c.getKey(key)).Bytes()
	if err != nil {
		if xerrors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return c.serializer.Unmarshal(data, dest)
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.getKey(key)).Err()
}

func (c *redisCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.getKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, c.getKey(key), ttl).Err()
}

// --- 哈希计数器（Hash Counters） ---

func (c *redisCache) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	return c.client.HIncrBy(ctx, c.getKey(key), field, delta).Result()
}

func (c *redisCache) HCounters(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := c.client.HGetAll(ctx, c.getKey(key)).Result()
	if err != nil {
		return nil, err
	}

	counters := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, xerrors.Wrapf(err, "hash field %q is not a counter", field)
		}
		counters[field] = n
	}
	return counters, nil
}

func (c *redisCache) HDel(ctx context.Context, key string, fields ...string) error {
	return c.client.HDel(ctx, c.getKey(key), fields...).Err()
}

// --- 工具 ---

// Close 是空操作：Cache 不拥有 Redis 连接，连接由 Connector 管理，
// 调用方应关闭 Connector 而非 Cache。
func (c *redisCache) Close() error {
	return nil
}
