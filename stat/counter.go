// Package stat 提供熔断器的成功/失败/拒绝计数模型。
//
// Counter 是纯内存的值对象，不感知存储和时间，
// 由上层的指标存储负责持久化与过期。
package stat

import "math"

// Event 一次请求结局的类别
type Event int

const (
	// EventSuccess 请求到达下游且被判定为成功
	EventSuccess Event = iota
	// EventFailure 请求到达下游但被判定为失败
	EventFailure
	// EventRejection 请求被熔断器拒绝，未到达下游
	EventRejection
)

// String 返回事件的字符串表示，同时也是存储层的哈希字段名
func (e Event) String() string {
	switch e {
	case EventSuccess:
		return "success"
	case EventFailure:
		return "failure"
	case EventRejection:
		return "rejection"
	default:
		return "unknown"
	}
}

// Counter 单个服务的请求结局计数。
//
// 三个字段恒为非负：带负增量的 Add 调用会在 0 处截断。
type Counter struct {
	Successes  uint64 `json:"successes"`
	Failures   uint64 `json:"failures"`
	Rejections uint64 `json:"rejections"`
}

// Add 按事件类别累加计数
func (c *Counter) Add(event Event, delta int64) {
	switch event {
	case EventSuccess:
		c.Successes = clampAdd(c.Successes, delta)
	case EventFailure:
		c.Failures = clampAdd(c.Failures, delta)
	case EventRejection:
		c.Rejections = clampAdd(c.Rejections, delta)
	}
}

// AddSuccess 累加成功计数，负增量在 0 处截断
func (c *Counter) AddSuccess(delta int64) {
	c.Successes = clampAdd(c.Successes, delta)
}

// AddFailure 累加失败计数，负增量在 0 处截断
func (c *Counter) AddFailure(delta int64) {
	c.Failures = clampAdd(c.Failures, delta)
}

// AddRejection 累加拒绝计数，负增量在 0 处截断
func (c *Counter) AddRejection(delta int64) {
	c.Rejections = clampAdd(c.Rejections, delta)
}

// RequestCount 实际到达下游的请求数（成功 + 失败）
func (c *Counter) RequestCount() uint64 {
	return c.Successes + c.Failures
}

// TotalCount 熔断器经手的请求总数（成功 + 失败 + 拒绝）
func (c *Counter) TotalCount() uint64 {
	return c.RequestCount() + c.Rejections
}

// SuccessRatio 成功率，四舍五入到整数百分比 [0,100]。
//
// 没有任何请求到达下游时返回 100：没有数据按乐观处理，而不是按失败处理。
func (c *Counter) SuccessRatio() int {
	requests := c.RequestCount()
	if requests == 0 {
		return 100
	}
	return int(math.Round(float64(c.Successes) / float64(requests) * 100))
}

// FailureRatio 失败率 = 100 - SuccessRatio
func (c *Counter) FailureRatio() int {
	return 100 - c.SuccessRatio()
}

func clampAdd(current uint64, delta int64) uint64 {
	if delta >= 0 {
		return current + uint64(delta)
	}
	dec := uint64(-delta)
	if dec >= current {
		return 0
	}
	return current - dec
}
