package breaker

import (
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/stat"
)

// Event 一次状态变更或拒绝事件的快照，仅用于驱动监听器通知，不持久化。
type Event struct {
	// Identity 服务身份
	Identity string
	// Previous 变更前状态；请求级事件（拒绝）中与 Current 相同
	Previous Status
	// Current 变更后状态
	Current Status
	// Stats 事件发生时刻的计数快照
	Stats stat.Counter
}

// Listener 状态变更监听器。
//
// 所有回调都在请求路径上同步执行，实现方不应阻塞；
// 需要异步处理时由实现方自行投递。
type Listener interface {
	// OnBreakerReset 状态回到 closed
	OnBreakerReset(ev Event)
	// OnBreakerTripped 状态变为 open（拦截生效）
	OnBreakerTripped(ev Event)
	// OnBreakerTheoreticallyTripped 状态变为 open，但熔断器处于观测模式
	OnBreakerTheoreticallyTripped(ev Event)
	// OnBreakerClosing 状态变为 closing（保留回调，当前算法不会触发）
	OnBreakerClosing(ev Event)
	// OnRequestRejected 单个请求被拒绝
	OnRequestRejected(ev Event)
	// OnRequestTheoreticallyRejected 观测模式下请求本应被拒绝但已放行
	OnRequestTheoreticallyRejected(ev Event)
}

// NopListener 空实现，自定义监听器可内嵌它以便只覆盖关心的回调。
type NopListener struct{}

func (NopListener) OnBreakerReset(ev Event)                 {}
func (NopListener) OnBreakerTripped(ev Event)               {}
func (NopListener) OnBreakerTheoreticallyTripped(ev Event)  {}
func (NopListener) OnBreakerClosing(ev Event)               {}
func (NopListener) OnRequestRejected(ev Event)              {}
func (NopListener) OnRequestTheoreticallyRejected(ev Event) {}

// LogListener 把熔断事件写入结构化日志的监听器
type LogListener struct {
	logger clog.Logger
}

// NewLogListener 创建日志监听器，logger 为 nil 时使用 clog.Discard()
func NewLogListener(logger clog.Logger) *LogListener {
	if logger == nil {
		logger = clog.Discard()
	}
	return &LogListener{logger: logger.WithNamespace("breaker")}
}

func (l *LogListener) fields(ev Event) []clog.Field {
	return []clog.Field{
		clog.String("service", ev.Identity),
		clog.String("from", ev.Previous.String()),
		clog.String("to", ev.Current.String()),
		clog.Uint64("successes", ev.Stats.Successes),
		clog.Uint64("failures", ev.Stats.Failures),
		clog.Uint64("rejections", ev.Stats.Rejections),
		clog.Int("failure_ratio", ev.Stats.FailureRatio()),
	}
}

func (l *LogListener) OnBreakerReset(ev Event) {
	l.logger.Info("circuit breaker reset", l.fields(ev)...)
}

func (l *LogListener) OnBreakerTripped(ev Event) {
	l.logger.Warn("circuit breaker tripped", l.fields(ev)...)
}

func (l *LogListener) OnBreakerTheoreticallyTripped(ev Event) {
	l.logger.Warn("circuit breaker tripped (observe only)", l.fields(ev)...)
}

func (l *LogListener) OnBreakerClosing(ev Event) {
	l.logger.Info("circuit breaker closing", l.fields(ev)...)
}

func (l *LogListener) OnRequestRejected(ev Event) {
	l.logger.Warn("request rejected by open circuit", clog.String("service", ev.Identity))
}

func (l *LogListener) OnRequestTheoreticallyRejected(ev Event) {
	l.logger.Info("request would be rejected (observe only)", clog.String("service", ev.Identity))
}
