// Package breaker 提供了基于缓存计数的熔断器组件，用于对出站调用做故障隔离。
//
// 与进程内统计的熔断器不同，breaker 把每个服务身份的成功/失败/拒绝计数
// 存放在外部缓存中（Redis 或进程内缓存），多个进程可以共享同一份统计：
//   - 按服务身份（identity）独立熔断，身份由可插拔的 Key 策略从请求派生
//   - 状态是统计值的纯函数，不单独落盘：失败率达到阈值且样本量足够即为 open
//   - 统计窗口是滑动 TTL：每个事件都会重置整个计数器的过期时间，
//     窗口内没有新事件时计数自然过期，熔断器回到 closed
//   - 状态变更与拒绝事件通过监听器同步通知（日志、Prometheus 等）
//   - 观测模式（Disabled）下只记录与通知，从不拦截流量
//
// ## 基本使用
//
//	c, _ := cache.New(&cache.Config{Driver: cache.DriverMemory})
//	brk, _ := breaker.New(c, &breaker.Config{
//		FailureThreshold: 50,
//		MinRequests:      3,
//		Window:           15 * time.Minute,
//	}, breaker.WithLogger(logger))
//
//	err := brk.Execute(ctx, "GET https://svc/x", func() error {
//		return callDownstream()
//	})
//
// ## HTTP 客户端集成
//
//	client := &http.Client{Transport: breaker.NewTransport(brk)}
//
// ## gRPC 客户端集成
//
//	conn, _ := grpc.NewClient("localhost:9001",
//		grpc.WithUnaryInterceptor(breaker.UnaryClientInterceptor(brk)))
package breaker

import (
	"context"
	"time"

	"github.com/ceyewan/fusebox/cache"
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/stat"
)

// Status 熔断器状态
type Status string

const (
	// StatusClosed 闭合状态，请求正常通过
	StatusClosed Status = "closed"
	// StatusOpen 打开状态，请求快速失败
	StatusOpen Status = "open"
	// StatusClosing 保留状态：监听器接口为它预留了回调，
	// 但当前的状态推导算法不会产生该状态
	StatusClosing Status = "closing"
)

// String 返回状态的字符串表示
func (s Status) String() string {
	return string(s)
}

// Breaker 熔断器核心接口
type Breaker interface {
	// Allow 请求前置决策。
	// 返回决策时刻的状态，供调用结束后回传给 Record 做变更检测。
	// 状态为 open 且熔断器启用时返回 *OpenCircuitError（req 会附在错误上），
	// 此时调用方不应再发起传输；观测模式下只通知监听器，永远放行。
	Allow(ctx context.Context, identity string, req any) (Status, error)

	// Record 记录一次到达下游的请求结局并在状态变化时通知监听器。
	// prev 是 Allow 返回的前置状态，failure 为该次结局是否判定为失败。
	Record(ctx context.Context, identity string, prev Status, failure bool) error

	// Execute 组合 Allow 和 Record 执行受熔断保护的函数。
	// fn 返回的错误先经过错误分类器：判定为失败才计入统计，
	// 否则（如本地取消）不记录，错误原样向上传播。
	Execute(ctx context.Context, identity string, fn func() error) error

	// Status 获取指定服务的当前状态（统计值的纯函数，无副作用）
	Status(ctx context.Context, identity string) (Status, error)

	// Stats 获取指定服务的计数快照
	Stats(ctx context.Context, identity string) (*stat.Counter, error)

	// Reset 清空指定服务的统计，状态回到 closed
	Reset(ctx context.Context, identity string) error

	// 运行时配置，变更对下一次 Allow/Record 生效
	Enabled() bool
	SetEnabled(enabled bool)
	FailureThreshold() int
	SetFailureThreshold(percent int)
	MinRequests() uint64
	SetMinRequests(n uint64)
	Window() time.Duration
	SetWindow(d time.Duration)
}

// New 创建熔断器实例。
//
// c 是计数存储依赖的缓存，多个熔断器可以通过 Config.KeyPrefix
// 划分各自的键空间共享同一个缓存。
func New(c cache.Cache, cfg *Config, opts ...Option) (Breaker, error) {
	if c == nil {
		return nil, ErrCacheNil
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	opt := &options{
		logger:        clog.Discard(),
		errClassifier: DefaultErrorClassifier,
	}
	for _, o := range opts {
		o(opt)
	}

	return newBreaker(c, cfg, opt)
}
