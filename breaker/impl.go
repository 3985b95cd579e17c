package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/fusebox/cache"
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/stat"
)

// circuitBreaker 熔断器实现（非导出）
type circuitBreaker struct {
	mu               sync.RWMutex
	failureThreshold int
	minRequests      uint64
	enabled          bool

	store         *metricStore
	logger        clog.Logger
	listeners     []Listener
	errClassifier ErrorClassifier
}

// newBreaker 创建熔断器实例（内部函数）
func newBreaker(c cache.Cache, cfg *Config, opt *options) (Breaker, error) {
	cb := &circuitBreaker{
		failureThreshold: cfg.FailureThreshold,
		minRequests:      cfg.MinRequests,
		enabled:          !cfg.Disabled,
		store:            newMetricStore(c, cfg.KeyPrefix, cfg.Window, opt.logger),
		logger:           opt.logger,
		listeners:        opt.listeners,
		errClassifier:    opt.errClassifier,
	}

	cb.logger.Info("circuit breaker created",
		clog.Int("failure_threshold", cfg.FailureThreshold),
		clog.Uint64("min_requests", cfg.MinRequests),
		clog.Duration("window", cfg.Window),
		clog.Bool("enabled", cb.enabled),
		clog.String("key_prefix", cfg.KeyPrefix))

	return cb, nil
}

// statusOf 从计数推导状态：样本量足够且失败率达到阈值即为 open。
// closing 不可由该函数产生，见 Status 类型的说明。
func (cb *circuitBreaker) statusOf(counter *stat.Counter) Status {
	cb.mu.RLock()
	threshold, minRequests := cb.failureThreshold, cb.minRequests
	cb.mu.RUnlock()

	if counter.RequestCount() >= minRequests && counter.FailureRatio() >= threshold {
		return StatusOpen
	}
	return StatusClosed
}

// Status 获取指定服务的当前状态
func (cb *circuitBreaker) Status(ctx context.Context, identity string) (Status, error) {
	if identity == "" {
		return StatusClosed, ErrIdentityEmpty
	}
	counter, err := cb.store.Get(ctx, identity)
	if err != nil {
		// 存储故障时按 closed 处理：熔断器自身的记账问题不应阻断业务流量
		cb.logger.Warn("stats unavailable, assuming closed",
			clog.String("service", identity), clog.Error(err))
		return StatusClosed, nil
	}
	return cb.statusOf(counter), nil
}

// Stats 获取指定服务的计数快照
func (cb *circuitBreaker) Stats(ctx context.Context, identity string) (*stat.Counter, error) {
	if identity == "" {
		return nil, ErrIdentityEmpty
	}
	return cb.store.Get(ctx, identity)
}

// Allow 请求前置决策
func (cb *circuitBreaker) Allow(ctx context.Context, identity string, req any) (Status, error) {
	if identity == "" {
		return StatusClosed, ErrIdentityEmpty
	}

	counter, err := cb.store.Get(ctx, identity)
	if err != nil {
		cb.logger.Warn("stats unavailable, allowing request",
			clog.String("service", identity), clog.Error(err))
		return StatusClosed, nil
	}

	current := cb.statusOf(counter)
	if current != StatusOpen {
		return current, nil
	}

	// 拒绝也计数：不会影响失败率（不计入 RequestCount），只用于观测
	if updated, err := cb.store.Record(ctx, identity, stat.EventRejection); err == nil {
		counter = updated
	}

	ev := Event{Identity: identity, Previous: current, Current: current, Stats: *counter}

	if !cb.Enabled() {
		// 观测模式：记录本应发生的拒绝，放行请求
		for _, l := range cb.listeners {
			l.OnRequestTheoreticallyRejected(ev)
		}
		return current, nil
	}

	for _, l := range cb.listeners {
		l.OnRequestRejected(ev)
	}
	return current, &OpenCircuitError{Identity: identity, Request: req}
}

// Record 记录一次请求结局并在状态变化时通知监听器
func (cb *circuitBreaker) Record(ctx context.Context, identity string, prev Status, failure bool) error {
	if identity == "" {
		return ErrIdentityEmpty
	}

	event := stat.EventSuccess
	if failure {
		event = stat.EventFailure
	}

	counter, err := cb.store.Record(ctx, identity, event)
	if err != nil {
		cb.logger.Warn("failed to record outcome",
			clog.String("service", identity), clog.Error(err))
		return err
	}

	current := cb.statusOf(counter)
	if current == prev {
		return nil
	}

	cb.notifyTransition(Event{
		Identity: identity,
		Previous: prev,
		Current:  current,
		Stats:    *counter,
	})
	return nil
}

// notifyTransition 按新状态选择回调，逐个同步通知监听器
func (cb *circuitBreaker) notifyTransition(ev Event) {
	cb.logger.Info("circuit breaker state changed",
		clog.String("service", ev.Identity),
		clog.String("from", ev.Previous.String()),
		clog.String("to", ev.Current.String()),
		clog.Int("failure_ratio", ev.Stats.FailureRatio()))

	for _, l := range cb.listeners {
		switch ev.Current {
		case StatusClosed:
			l.OnBreakerReset(ev)
		case StatusOpen:
			if cb.Enabled() {
				l.OnBreakerTripped(ev)
			} else {
				l.OnBreakerTheoreticallyTripped(ev)
			}
		case StatusClosing:
			l.OnBreakerClosing(ev)
		}
	}
}

// Execute 执行受熔断保护的函数
func (cb *circuitBreaker) Execute(ctx context.Context, identity string, fn func() error) error {
	prev, err := cb.Allow(ctx, identity, nil)
	if err != nil {
		return err
	}

	callErr := fn()
	if callErr != nil {
		if cb.errClassifier(callErr, identity) {
			if err := cb.Record(ctx, identity, prev, true); err != nil {
				cb.logger.Warn("outcome not recorded", clog.String("service", identity), clog.Error(err))
			}
		}
		// 非失败类错误（如本地取消）不计入统计，原样传播
		return callErr
	}

	if err := cb.Record(ctx, identity, prev, false); err != nil {
		cb.logger.Warn("outcome not recorded", clog.String("service", identity), clog.Error(err))
	}
	return nil
}

// Reset 清空指定服务的统计
func (cb *circuitBreaker) Reset(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrIdentityEmpty
	}
	if err := cb.store.Reset(ctx, identity); err != nil {
		return err
	}
	cb.logger.Info("circuit breaker stats reset", clog.String("service", identity))
	return nil
}

// --- 运行时配置 ---

func (cb *circuitBreaker) Enabled() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.enabled
}

func (cb *circuitBreaker) SetEnabled(enabled bool) {
	cb.mu.Lock()
	cb.enabled = enabled
	cb.mu.Unlock()
	cb.logger.Info("circuit breaker enforcement toggled", clog.Bool("enabled", enabled))
}

func (cb *circuitBreaker) FailureThreshold() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failureThreshold
}

func (cb *circuitBreaker) SetFailureThreshold(percent int) {
	if percent <= 0 || percent > 100 {
		return
	}
	cb.mu.Lock()
	cb.failureThreshold = percent
	cb.mu.Unlock()
}

func (cb *circuitBreaker) MinRequests() uint64 {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.minRequests
}

func (cb *circuitBreaker) SetMinRequests(n uint64) {
	if n == 0 {
		return
	}
	cb.mu.Lock()
	cb.minRequests = n
	cb.mu.Unlock()
}

func (cb *circuitBreaker) Window() time.Duration {
	return cb.store.Window()
}

func (cb *circuitBreaker) SetWindow(d time.Duration) {
	cb.store.SetWindow(d)
}
