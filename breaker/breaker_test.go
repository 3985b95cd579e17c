package breaker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/fusebox/cache"
	"github.com/ceyewan/fusebox/xerrors"
)

// recListener 记录回调次数的测试监听器
type recListener struct {
	mu             sync.Mutex
	resets         int
	trips          int
	theoTrips      int
	closings       int
	rejections     int
	theoRejections int
	last           Event
}

func (l *recListener) record(ev Event, counter *int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*counter++
	l.last = ev
}

func (l *recListener) OnBreakerReset(ev Event)                 { l.record(ev, &l.resets) }
func (l *recListener) OnBreakerTripped(ev Event)               { l.record(ev, &l.trips) }
func (l *recListener) OnBreakerTheoreticallyTripped(ev Event)  { l.record(ev, &l.theoTrips) }
func (l *recListener) OnBreakerClosing(ev Event)               { l.record(ev, &l.closings) }
func (l *recListener) OnRequestRejected(ev Event)              { l.record(ev, &l.rejections) }
func (l *recListener) OnRequestTheoreticallyRejected(ev Event) { l.record(ev, &l.theoRejections) }

func newTestBreaker(t *testing.T, cfg *Config, opts ...Option) (Breaker, *recListener) {
	t.Helper()
	c, err := cache.New(&cache.Config{Driver: cache.DriverMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	listener := &recListener{}
	opts = append(opts, WithListener(listener))
	brk, err := New(c, cfg, opts...)
	require.NoError(t, err)
	return brk, listener
}

// TestNewValidation 测试创建校验与默认值
func TestNewValidation(t *testing.T) {
	_, err := New(nil, &Config{})
	assert.ErrorIs(t, err, ErrCacheNil)

	brk, _ := newTestBreaker(t, nil)
	assert.Equal(t, DefaultFailureThreshold, brk.FailureThreshold())
	assert.Equal(t, uint64(DefaultMinRequests), brk.MinRequests())
	assert.Equal(t, DefaultWindow, brk.Window())
	assert.True(t, brk.Enabled())
}

// TestTripAtThreshold 连续失败在第 N 次（N=MinRequests）恰好触发熔断，
// 且只通知一次 OnBreakerTripped
func TestTripAtThreshold(t *testing.T) {
	brk, listener := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()
	failing := func() error { return xerrors.New("boom") }

	for i := 0; i < 2; i++ {
		_ = brk.Execute(ctx, "svc", failing)
		st, err := brk.Status(ctx, "svc")
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, st, "第 %d 次失败后不应熔断", i+1)
	}

	_ = brk.Execute(ctx, "svc", failing)
	st, err := brk.Status(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, st, "第 3 次失败后应熔断")
	assert.Equal(t, 1, listener.trips, "应恰好通知一次 OnBreakerTripped")
	assert.Equal(t, 0, listener.resets)
}

// TestScenarioFailFailSuccess 结局 [fail, fail, success]：失败率 67 ≥ 50 → open，
// 第 4 次调用被拒绝且不触达传输
func TestScenarioFailFailSuccess(t *testing.T) {
	brk, listener := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3, Window: 15 * time.Minute})
	ctx := context.Background()
	identity := "GET https://svc/x"

	_ = brk.Execute(ctx, identity, func() error { return xerrors.New("500") })
	_ = brk.Execute(ctx, identity, func() error { return xerrors.New("500") })
	require.NoError(t, brk.Execute(ctx, identity, func() error { return nil }))

	stats, err := brk.Stats(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.RequestCount())
	assert.Equal(t, uint64(2), stats.Failures)
	assert.Equal(t, 67, stats.FailureRatio())

	st, err := brk.Status(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, st)

	called := false
	err = brk.Execute(ctx, identity, func() error { called = true; return nil })
	require.Error(t, err)
	assert.False(t, called, "被拒绝的调用不应触达传输")
	assert.ErrorIs(t, err, ErrOpen)

	var oce *OpenCircuitError
	require.True(t, xerrors.As(err, &oce))
	assert.Equal(t, identity, oce.Identity)
	assert.Equal(t, 1, listener.rejections)
}

// TestScenarioFailSuccessSuccess 结局 [fail, success, success]：失败率 33 < 50 →
// 保持 closed，第 4 次调用正常触达传输
func TestScenarioFailSuccessSuccess(t *testing.T) {
	brk, _ := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()
	identity := "GET https://svc/x"

	_ = brk.Execute(ctx, identity, func() error { return xerrors.New("500") })
	require.NoError(t, brk.Execute(ctx, identity, func() error { return nil }))
	require.NoError(t, brk.Execute(ctx, identity, func() error { return nil }))

	stats, err := brk.Stats(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, 33, stats.FailureRatio())

	st, err := brk.Status(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, st)

	called := false
	require.NoError(t, brk.Execute(ctx, identity, func() error { called = true; return nil }))
	assert.True(t, called)
}

// TestDisabledNeverRejects 观测模式：open 状态下不拒绝，
// 每次调用通知一次 OnRequestTheoreticallyRejected
func TestDisabledNeverRejects(t *testing.T) {
	brk, listener := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3, Disabled: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })
	}

	st, err := brk.Status(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, st)
	assert.Equal(t, 1, listener.theoTrips, "观测模式下应通知 theoretical trip")
	assert.Equal(t, 0, listener.trips)

	for i := 0; i < 2; i++ {
		called := false
		require.NoError(t, brk.Execute(ctx, "svc", func() error { called = true; return nil }))
		assert.True(t, called, "观测模式永远放行")
	}
	assert.Equal(t, 2, listener.theoRejections)
	assert.Equal(t, 0, listener.rejections)
}

// TestRecoveryBySuccesses open 后足够的成功把失败率压回阈值以下 → reset 通知
func TestRecoveryBySuccesses(t *testing.T) {
	brk, listener := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3, Disabled: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })
	}
	st, _ := brk.Status(ctx, "svc")
	require.Equal(t, StatusOpen, st)

	// 3 失败之后需要 4 次成功：3/7 = 43% < 50%
	for i := 0; i < 4; i++ {
		require.NoError(t, brk.Execute(ctx, "svc", func() error { return nil }))
	}

	st, err := brk.Status(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, st)
	assert.Equal(t, 1, listener.resets, "恢复时应恰好通知一次 OnBreakerReset")
}

// TestReset 手动重置：任何状态下都回到 closed
func TestReset(t *testing.T) {
	brk, _ := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })
	}
	st, _ := brk.Status(ctx, "svc")
	require.Equal(t, StatusOpen, st)

	require.NoError(t, brk.Reset(ctx, "svc"))

	st, err := brk.Status(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, st)

	stats, err := brk.Stats(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TotalCount())
}

// TestStatusIdempotent 反复查询状态不产生通知、不改变结果
func TestStatusIdempotent(t *testing.T) {
	brk, listener := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()

	_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })

	first, err := brk.Status(ctx, "svc")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		st, err := brk.Status(ctx, "svc")
		require.NoError(t, err)
		assert.Equal(t, first, st)
	}
	assert.Equal(t, 0, listener.trips+listener.resets+listener.theoTrips+listener.closings)
}

// TestUnclassifiedErrorNotRecorded 非失败类错误（本地取消）不计入统计
func TestUnclassifiedErrorNotRecorded(t *testing.T) {
	brk, _ := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()

	err := brk.Execute(ctx, "svc", func() error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)

	stats, err := brk.Stats(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TotalCount(), "取消不应留下任何计数")
}

// TestRejectionCounted 拒绝计入 rejections，但不影响失败率
func TestRejectionCounted(t *testing.T) {
	brk, _ := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })
	}
	for i := 0; i < 2; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return nil })
	}

	stats, err := brk.Stats(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Rejections)
	assert.Equal(t, uint64(3), stats.RequestCount(), "拒绝不计入到达下游的请求数")
	assert.Equal(t, 100, stats.FailureRatio())
}

// TestEmptyIdentity 空身份直接报错
func TestEmptyIdentity(t *testing.T) {
	brk, _ := newTestBreaker(t, nil)
	ctx := context.Background()

	_, err := brk.Allow(ctx, "", nil)
	assert.ErrorIs(t, err, ErrIdentityEmpty)
	_, err = brk.Status(ctx, "")
	assert.ErrorIs(t, err, ErrIdentityEmpty)
	assert.ErrorIs(t, brk.Record(ctx, "", StatusClosed, true), ErrIdentityEmpty)
	assert.ErrorIs(t, brk.Reset(ctx, ""), ErrIdentityEmpty)
}

// TestRuntimeSetters 运行时配置变更对下一次决策生效
func TestRuntimeSetters(t *testing.T) {
	brk, listener := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })
	}
	st, _ := brk.Status(ctx, "svc")
	require.Equal(t, StatusOpen, st)

	// 调高最小请求数后同样的统计不再满足熔断条件
	brk.SetMinRequests(10)
	st, err := brk.Status(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, st)
	assert.Equal(t, uint64(10), brk.MinRequests())

	brk.SetMinRequests(3)
	brk.SetFailureThreshold(99)
	assert.Equal(t, 99, brk.FailureThreshold())
	st, _ = brk.Status(ctx, "svc")
	assert.Equal(t, StatusOpen, st, "失败率 100 仍应达到阈值 99")

	// 非法值被忽略
	brk.SetFailureThreshold(0)
	brk.SetFailureThreshold(101)
	assert.Equal(t, 99, brk.FailureThreshold())
	brk.SetMinRequests(0)
	assert.Equal(t, uint64(3), brk.MinRequests())

	brk.SetWindow(time.Minute)
	assert.Equal(t, time.Minute, brk.Window())

	// 关闭拦截后 open 状态放行
	brk.SetEnabled(false)
	assert.False(t, brk.Enabled())
	called := false
	require.NoError(t, brk.Execute(ctx, "svc", func() error { called = true; return nil }))
	assert.True(t, called)
	assert.Positive(t, listener.theoRejections)
}

// TestIdentitiesIndependent 不同服务身份互不干扰
func TestIdentitiesIndependent(t *testing.T) {
	brk, _ := newTestBreaker(t, &Config{FailureThreshold: 50, MinRequests: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = brk.Execute(ctx, "bad-svc", func() error { return xerrors.New("boom") })
		_ = brk.Execute(ctx, "good-svc", func() error { return nil })
	}

	st, _ := brk.Status(ctx, "bad-svc")
	assert.Equal(t, StatusOpen, st)
	st, _ = brk.Status(ctx, "good-svc")
	assert.Equal(t, StatusClosed, st)
}

// TestKeyPrefixIsolation 不同前缀的熔断器在同一缓存上互不可见
func TestKeyPrefixIsolation(t *testing.T) {
	c, err := cache.New(&cache.Config{Driver: cache.DriverMemory})
	require.NoError(t, err)
	defer c.Close()

	strict, err := New(c, &Config{FailureThreshold: 50, MinRequests: 1, KeyPrefix: "strict:"})
	require.NoError(t, err)
	lax, err := New(c, &Config{FailureThreshold: 50, MinRequests: 100, KeyPrefix: "lax:"})
	require.NoError(t, err)

	ctx := context.Background()
	_ = strict.Execute(ctx, "svc", func() error { return xerrors.New("boom") })

	st, _ := strict.Status(ctx, "svc")
	assert.Equal(t, StatusOpen, st)
	st, _ = lax.Status(ctx, "svc")
	assert.Equal(t, StatusClosed, st)

	stats, err := lax.Stats(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TotalCount())
}
