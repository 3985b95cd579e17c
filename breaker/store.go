package breaker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ceyewan/fusebox/cache"
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/stat"
	"github.com/ceyewan/fusebox/xerrors"
)

// metricStore 按服务身份持久化计数器的指标存储。
//
// 每个服务身份对应缓存中的一个哈希，字段即 stat.Event 的名字。
// 写路径只有 Record 一条：自增一个字段、把整个条目的 TTL 重置为
// now+window（滑动窗口）、读回完整计数。
//
// 缓存不提供跨字段事务：redis 驱动下单字段自增是原子的，
// 但"自增 + 续期 + 读回"整体不是；并发写同一身份时读回的快照
// 可能包含对方的事件。这是设计上接受的近似，不影响单字段计数的准确性。
type metricStore struct {
	cache  cache.Cache
	prefix string
	window atomic.Int64 // time.Duration，SetWindow 可在运行时调整
	logger clog.Logger
}

func newMetricStore(c cache.Cache, prefix string, window time.Duration, logger clog.Logger) *metricStore {
	s := &metricStore{
		cache:  c,
		prefix: prefix,
		logger: logger,
	}
	s.window.Store(int64(window))
	return s
}

func (s *metricStore) key(identity string) string {
	return s.prefix + identity
}

// Window 当前统计窗口
func (s *metricStore) Window() time.Duration {
	return time.Duration(s.window.Load())
}

// SetWindow 调整统计窗口，对后续事件的续期生效
func (s *metricStore) SetWindow(d time.Duration) {
	if d > 0 {
		s.window.Store(int64(d))
	}
}

// Record 记录一个事件并返回更新后的完整计数
func (s *metricStore) Record(ctx context.Context, identity string, event stat.Event) (*stat.Counter, error) {
	key := s.key(identity)

	if _, err := s.cache.HIncrBy(ctx, key, event.String(), 1); err != nil {
		return nil, xerrors.Wrapf(err, "record %s for %q", event, identity)
	}

	// 滑动窗口：每个事件都重置整个计数器的存活时间
	if err := s.cache.Expire(ctx, key, s.Window()); err != nil && !xerrors.Is(err, cache.ErrMiss) {
		s.logger.Warn("failed to refresh stats window",
			clog.String("service", identity), clog.Error(err))
	}

	return s.Get(ctx, identity)
}

// Get 返回指定服务的计数。条目不存在或已过期时返回零计数，不报错。
func (s *metricStore) Get(ctx context.Context, identity string) (*stat.Counter, error) {
	fields, err := s.cache.HCounters(ctx, s.key(identity))
	if err != nil {
		return nil, xerrors.Wrapf(err, "load stats for %q", identity)
	}

	counter := &stat.Counter{}
	for _, ev := range []stat.Event{stat.EventSuccess, stat.EventFailure, stat.EventRejection} {
		if n := fields[ev.String()]; n > 0 {
			counter.Add(ev, n)
		}
	}
	return counter, nil
}

// Reset 删除指定服务的计数条目（硬重置，不是衰减）
func (s *metricStore) Reset(ctx context.Context, identity string) error {
	if err := s.cache.Delete(ctx, s.key(identity)); err != nil {
		return xerrors.Wrapf(err, "reset stats for %q", identity)
	}
	return nil
}
