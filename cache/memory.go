package cache

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

const (
	// defaultCapacity 默认最大条目数
	defaultCapacity = 10000

	// defaultTTL 未指定 TTL 时使用的默认过期时间（100 年，模拟永久）
	defaultTTL = 24 * 365 * 100 * time.Hour
)

// memoryHash 进程内哈希计数器条目。
// 字段级并发通过条目自身的互斥锁保证，与 redis 驱动的
// 服务端原子自增对齐。
type memoryHash struct {
	mu     sync.Mutex
	fields map[string]int64
}

type memoryCache struct {
	cache  *otter.Cache[string, any]
	mu     sync.Mutex // 仅保护哈希条目的创建
	logger clog.Logger
}

// newMemory 创建进程内缓存实例
func newMemory(cfg *MemoryConfig, logger clog.Logger) (Cache, error) {
	if cfg == nil {
		cfg = &MemoryConfig{Capacity: defaultCapacity}
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}

	// 写过期策略与 Redis TTL 语义一致：
	// 过期时间从写入开始计算，读取不会重置 TTL。
	// 具体 TTL 在 Set/Expire 时通过 SetExpiresAfter 覆盖。
	opts := &otter.Options[string, any]{
		MaximumSize:      cfg.Capacity,
		StatsRecorder:    stats.NewCounter(),
		ExpiryCalculator: otter.ExpiryWriting[string, any](defaultTTL),
	}

	c, err := otter.New(opts)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build otter cache")
	}

	return &memoryCache{cache: c, logger: logger}, nil
}

// --- 键值（Key-Value） ---

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.cache.Set(key, value)
	if ttl > 0 {
		c.cache.SetExpiresAfter(key, ttl)
	}
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest any) error {
	val, ok := c.cache.GetIfPresent(key)
	if !ok {
		return ErrMiss
	}
	return assignValue(val, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Invalidate(key)
	return nil
}

func (c *memoryCache) Has(ctx context.Context, key string) (bool, error) {
	_, ok := c.cache.GetIfPresent(key)
	return ok, nil
}

func (c *memoryCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if _, ok := c.cache.GetIfPresent(key); !ok {
		return ErrMiss
	}
	c.cache.SetExpiresAfter(key, ttl)
	return nil
}

// --- 哈希计数器（Hash Counters） ---

func (c *memoryCache) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	h, err := c.getOrCreateHash(key)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.fields[field] += delta
	return h.fields[field], nil
}

func (c *memoryCache) HCounters(ctx context.Context, key string) (map[string]int64, error) {
	val, ok := c.cache.GetIfPresent(key)
	if !ok {
		return map[string]int64{}, nil
	}
	h, ok := val.(*memoryHash)
	if !ok {
		return nil, xerrors.Errorf("key %q holds a non-hash value", key)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	counters := make(map[string]int64, len(h.fields))
	for field, n := range h.fields {
		counters[field] = n
	}
	return counters, nil
}

func (c *memoryCache) HDel(ctx context.Context, key string, fields ...string) error {
	val, ok := c.cache.GetIfPresent(key)
	if !ok {
		return nil
	}
	h, ok := val.(*memoryHash)
	if !ok {
		return xerrors.Errorf("key %q holds a non-hash value", key)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, field := range fields {
		delete(h.fields, field)
	}
	return nil
}

func (c *memoryCache) getOrCreateHash(key string) (*memoryHash, error) {
	if val, ok := c.cache.GetIfPresent(key); ok {
		h, ok := val.(*memoryHash)
		if !ok {
			return nil, xerrors.Errorf("key %q holds a non-hash value", key)
		}
		return h, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// 加锁后重查，避免并发创建出两个哈希互相覆盖
	if val, ok := c.cache.GetIfPresent(key); ok {
		h, ok := val.(*memoryHash)
		if !ok {
			return nil, xerrors.Errorf("key %q holds a non-hash value", key)
		}
		return h, nil
	}

	h := &memoryHash{fields: make(map[string]int64)}
	c.cache.Set(key, h)
	return h, nil
}

// --- 工具 ---

func (c *memoryCache) Close() error {
	c.cache.StopAllGoroutines()
	return nil
}

// assignValue 把缓存中的原始对象赋给 dest 指向的变量。
//
// 这是基于反射的浅拷贝：缓存的对象包含指针时，dest 与缓存共享底层数据，
// 调用方应将取到的对象视为只读。
func assignValue(val any, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return xerrors.New("dest must be a non-nil pointer")
	}
	dv = dv.Elem()

	sv := reflect.ValueOf(val)
	if sv.IsValid() && sv.Type().AssignableTo(dv.Type()) {
		dv.Set(sv)
		return nil
	}
	if dv.Kind() == reflect.Interface {
		dv.Set(sv)
		return nil
	}
	return xerrors.Errorf("cannot assign cached value of type %T to dest of type %T", val, dest)
}
