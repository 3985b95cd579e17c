package breaker

import (
	"context"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

// ErrorClassifier 判定一个传输错误是否计为对下游服务的失败。
//
// 返回 false 的错误完全不计入统计（对熔断器"不可见"），
// 典型的是调用方本地取消：那不说明下游有问题。
type ErrorClassifier func(err error, identity string) bool

// DefaultErrorClassifier 默认错误分类：
// 上下文取消/超时不计入，其余错误一律视为服务失败。
func DefaultErrorClassifier(err error, identity string) bool {
	if err == nil {
		return false
	}
	if xerrors.Is(err, context.Canceled) || xerrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项配置（内部使用）
type options struct {
	logger        clog.Logger
	listeners     []Listener
	errClassifier ErrorClassifier
}

// WithLogger 设置 Logger，传入 nil 时使用 clog.Discard()。
// 内部会自动追加 namespace: "breaker"。
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithListener 注册一个监听器，可多次调用注册多个
func WithListener(l Listener) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// WithErrorClassifier 设置 Execute 使用的错误分类器
func WithErrorClassifier(f ErrorClassifier) Option {
	return func(o *options) {
		if f != nil {
			o.errClassifier = f
		}
	}
}
