// Package cache 提供熔断器指标存储依赖的键值缓存抽象。
//
// 两种驱动：
//   - redis: 多进程共享一份计数，哈希字段的自增在服务端原子完成
//   - memory: 进程内缓存（otter），适合单实例部署和测试
//
// 除了常规的带 TTL 键值操作，Cache 还暴露了哈希计数器操作
// （HIncrBy / HCounters / HDel），指标存储用它们为每个服务身份
// 维护一组 success/failure/rejection 计数。
//
// 基本使用：
//
//	c, _ := cache.New(&cache.Config{Driver: cache.DriverMemory})
//	n, _ := c.HIncrBy(ctx, "svc", "failure", 1)
package cache

import (
	"context"
	"time"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

// 驱动类型
const (
	// DriverRedis 分布式缓存，多个进程共享计数
	DriverRedis = "redis"
	// DriverMemory 进程内缓存
	DriverMemory = "memory"
)

// 错误定义
var (
	// ErrMiss 键不存在或已过期
	ErrMiss = xerrors.New("cache: miss")
)

// Cache 定义了缓存组件的核心能力。
//
// 所有操作的 TTL 语义与 Redis 一致：TTL 从写入时刻起算，
// Expire 重置整个条目的剩余存活时间。
type Cache interface {
	// --- 键值（Key-Value） ---
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// --- 哈希计数器（Hash Counters） ---

	// HIncrBy 对哈希字段做自增并返回新值。字段不存在时从 0 开始。
	// redis 驱动下该操作在服务端原子完成；memory 驱动按哈希加锁。
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	// HCounters 返回哈希的全部计数字段。键不存在时返回空 map，不报错。
	HCounters(ctx context.Context, key string) (map[string]int64, error)

	// HDel 删除哈希中的指定字段
	HDel(ctx context.Context, key string, fields ...string) error

	// --- 工具 ---
	Close() error
}

// New 根据配置创建缓存实例。
//
// Driver 为 "memory" 时创建进程内缓存；
// 为 "redis" 或为空时创建 Redis 缓存，此时必须通过
// WithRedisConnector 注入 Redis 连接器。
func New(cfg *Config, opts ...Option) (Cache, error) {
	if cfg == nil {
		return nil, xerrors.New("config is nil")
	}

	opt := &options{logger: clog.Discard()}
	for _, o := range opts {
		o(opt)
	}

	switch cfg.Driver {
	case DriverMemory:
		return newMemory(cfg.Memory, opt.logger)
	case DriverRedis, "":
		if opt.redisConn == nil {
			return nil, xerrors.New("redis connector is required, use WithRedisConnector")
		}
		return newRedis(opt.redisConn, cfg, opt.logger)
	default:
		return nil, xerrors.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
