package breaker

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// KeyFunc 从 gRPC 调用上下文中派生服务身份
type KeyFunc func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string

// ServiceKey 服务级别身份，使用连接目标作为熔断维度。
// 返回示例: "dns:///logic-service:9001"
func ServiceKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		return cc.Target()
	}
}

// MethodKey 方法级别身份，按方法独立熔断。
// 返回示例: "/pkg.Service/Method"
func MethodKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		return fullMethod
	}
}

// CompositeKey 组合多个 KeyFunc，使用 @ 分隔。
// 返回示例: "dns:///logic-service@/pkg.Service/Method"
func CompositeKey(primary KeyFunc, secondary ...KeyFunc) KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		result := primary(ctx, fullMethod, cc)
		for _, kf := range secondary {
			result += "@" + kf(ctx, fullMethod, cc)
		}
		return result
	}
}

// GRPCErrorClassifier gRPC 错误分类：只有指明下游不可用的状态码计为失败。
// Canceled 是调用方本地行为，永远不计入。
func GRPCErrorClassifier(err error, identity string) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal:
		return true
	default:
		return false
	}
}

// InterceptorOption 拦截器选项函数
type InterceptorOption func(*interceptorOptions)

type interceptorOptions struct {
	key      KeyFunc
	classify ErrorClassifier
}

// WithKeyFunc 设置身份派生策略，默认 ServiceKey()
func WithKeyFunc(f KeyFunc) InterceptorOption {
	return func(o *interceptorOptions) {
		if f != nil {
			o.key = f
		}
	}
}

// WithGRPCErrorClassifier 设置错误分类器，默认 GRPCErrorClassifier
func WithGRPCErrorClassifier(f ErrorClassifier) InterceptorOption {
	return func(o *interceptorOptions) {
		if f != nil {
			o.classify = f
		}
	}
}

func newInterceptorOptions(opts []InterceptorOption) *interceptorOptions {
	o := &interceptorOptions{
		key:      ServiceKey(),
		classify: GRPCErrorClassifier,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UnaryClientInterceptor 返回带熔断保护的 gRPC 一元调用客户端拦截器
//
// 使用示例:
//
//	conn, _ := grpc.NewClient("localhost:9001",
//		grpc.WithUnaryInterceptor(breaker.UnaryClientInterceptor(brk)))
func UnaryClientInterceptor(b Breaker, opts ...InterceptorOption) grpc.UnaryClientInterceptor {
	o := newInterceptorOptions(opts)

	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		identity := o.key(ctx, method, cc)

		prev, err := b.Allow(ctx, identity, req)
		if err != nil {
			return err
		}

		err = invoker(ctx, method, req, reply, cc, callOpts...)
		if err != nil {
			if o.classify(err, identity) {
				_ = b.Record(ctx, identity, prev, true)
			}
			return err
		}

		_ = b.Record(ctx, identity, prev, false)
		return nil
	}
}

// StreamClientInterceptor 返回带熔断保护的 gRPC 流式调用客户端拦截器。
// 熔断结局以建流结果为准，流内部的收发错误不计入统计。
func StreamClientInterceptor(b Breaker, opts ...InterceptorOption) grpc.StreamClientInterceptor {
	o := newInterceptorOptions(opts)

	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, callOpts ...grpc.CallOption) (grpc.ClientStream, error) {
		identity := o.key(ctx, method, cc)

		prev, err := b.Allow(ctx, identity, nil)
		if err != nil {
			return nil, err
		}

		stream, err := streamer(ctx, desc, cc, method, callOpts...)
		if err != nil {
			if o.classify(err, identity) {
				_ = b.Record(ctx, identity, prev, true)
			}
			return nil, err
		}

		_ = b.Record(ctx, identity, prev, false)
		return stream, nil
	}
}
