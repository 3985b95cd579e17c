package breaker

import "time"

// 默认配置
const (
	// DefaultFailureThreshold 默认失败率阈值（百分比）
	DefaultFailureThreshold = 50
	// DefaultMinRequests 默认最小请求数
	DefaultMinRequests = 3
	// DefaultWindow 默认统计窗口
	DefaultWindow = 15 * time.Minute
	// DefaultKeyPrefix 默认缓存键前缀
	DefaultKeyPrefix = "breaker:"
)

// Config 熔断器配置。
//
// 配置属于熔断器实例而非单个服务：同一实例下的所有服务身份
// 共用一套阈值，不同策略通过创建多个实例（配不同 KeyPrefix）实现。
type Config struct {
	// FailureThreshold 失败率阈值，整数百分比 (1-100)。
	// 失败率达到该值且样本量足够时熔断。默认: 50
	FailureThreshold int `mapstructure:"failure_threshold" json:"failure_threshold" yaml:"failure_threshold"`

	// MinRequests 触发熔断的最小请求数。
	// 到达下游的请求数（成功+失败，不含拒绝）未达到该值前不做熔断判断。
	// 默认: 3
	MinRequests uint64 `mapstructure:"min_requests" json:"min_requests" yaml:"min_requests"`

	// Window 统计窗口，作为计数器的滑动 TTL：
	// 每记录一个事件都会把整个计数器的过期时间重置为 now+Window。
	// 默认: 15m
	Window time.Duration `mapstructure:"window" json:"window" yaml:"window"`

	// Disabled 观测模式。true 时熔断器照常统计、推导状态并通知监听器
	// （theoretical 系列回调），但从不拒绝请求。默认: false（即拦截生效）
	Disabled bool `mapstructure:"disabled" json:"disabled" yaml:"disabled"`

	// KeyPrefix 缓存键前缀，用于在共享缓存中隔离多个熔断器实例。
	// 默认: "breaker:"
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix" yaml:"key_prefix"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.FailureThreshold <= 0 || c.FailureThreshold > 100 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.MinRequests == 0 {
		c.MinRequests = DefaultMinRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
}
