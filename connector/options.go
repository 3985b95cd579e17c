package connector

import "github.com/ceyewan/fusebox/clog"

// Option 连接器初始化选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	logger clog.Logger
}

// WithLogger 注入日志记录器，传入 nil 时使用 clog.Discard()
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = l.WithNamespace("connector")
		}
	}
}
