package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 指标常量定义
const (
	// MetricStateChanges 状态变更次数 (Counter)
	MetricStateChanges = "fusebox_breaker_state_changes_total"

	// MetricRejectsTotal 被熔断拒绝的请求数 (Counter)
	MetricRejectsTotal = "fusebox_breaker_rejects_total"

	// MetricState 当前状态 (Gauge: 0=closed, 1=open, 2=closing)
	MetricState = "fusebox_breaker_state"

	// LabelService 服务身份标签
	LabelService = "service"

	// LabelToState 目标状态标签
	LabelToState = "to_state"

	// LabelMode 拦截模式标签 (enforced=实际拒绝, shadow=观测模式)
	LabelMode = "mode"
)

// MetricsListener 把熔断事件导出为 Prometheus 指标的监听器
type MetricsListener struct {
	stateChanges *prometheus.CounterVec
	rejects      *prometheus.CounterVec
	state        *prometheus.GaugeVec
}

// NewMetricsListener 创建 Prometheus 监听器并把指标注册到 reg。
// reg 为 nil 时使用 prometheus.DefaultRegisterer。
func NewMetricsListener(reg prometheus.Registerer) (*MetricsListener, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	l := &MetricsListener{
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStateChanges,
			Help: "Circuit breaker state changes.",
		}, []string{LabelService, LabelToState}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRejectsTotal,
			Help: "Requests rejected (or would-be rejected in shadow mode) by the circuit breaker.",
		}, []string{LabelService, LabelMode}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricState,
			Help: "Current circuit breaker state (0=closed, 1=open, 2=closing).",
		}, []string{LabelService}),
	}

	for _, c := range []prometheus.Collector{l.stateChanges, l.rejects, l.state} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func stateValue(s Status) float64 {
	switch s {
	case StatusOpen:
		return 1
	case StatusClosing:
		return 2
	default:
		return 0
	}
}

func (l *MetricsListener) transition(ev Event) {
	l.stateChanges.WithLabelValues(ev.Identity, ev.Current.String()).Inc()
	l.state.WithLabelValues(ev.Identity).Set(stateValue(ev.Current))
}

func (l *MetricsListener) OnBreakerReset(ev Event)                { l.transition(ev) }
func (l *MetricsListener) OnBreakerTripped(ev Event)              { l.transition(ev) }
func (l *MetricsListener) OnBreakerTheoreticallyTripped(ev Event) { l.transition(ev) }
func (l *MetricsListener) OnBreakerClosing(ev Event)              { l.transition(ev) }

func (l *MetricsListener) OnRequestRejected(ev Event) {
	l.rejects.WithLabelValues(ev.Identity, "enforced").Inc()
}

func (l *MetricsListener) OnRequestTheoreticallyRejected(ev Event) {
	l.rejects.WithLabelValues(ev.Identity, "shadow").Inc()
}
