package cache

import (
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/connector"
)

// Option 缓存组件选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	logger    clog.Logger
	redisConn connector.RedisConnector
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("cache")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("cache")
		}
	}
}

// WithRedisConnector 注入 Redis 连接器（仅用于 redis 驱动）
func WithRedisConnector(conn connector.RedisConnector) Option {
	return func(o *options) {
		o.redisConn = conn
	}
}
