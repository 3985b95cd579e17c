package breaker

import (
	"fmt"
	"net/http"
)

// HTTPKeyFunc 从 HTTP 请求中派生服务身份
type HTTPKeyFunc func(req *http.Request) string

// MethodURLKey 方法+URL 级别身份，同一个接口一条熔断统计。
// 返回示例: "GET https://svc/x"
func MethodURLKey() HTTPKeyFunc {
	return func(req *http.Request) string {
		return fmt.Sprintf("%s %s://%s%s", req.Method, req.URL.Scheme, req.URL.Host, req.URL.Path)
	}
}

// HostKey 主机级别身份，整个下游主机共享一条熔断统计。
// 返回示例: "svc:8080"
func HostKey() HTTPKeyFunc {
	return func(req *http.Request) string {
		return req.URL.Host
	}
}

// ResponseClassifier 判定一个已返回的响应是否计为失败
type ResponseClassifier func(resp *http.Response, identity string) bool

// DefaultResponseClassifier 默认响应分类：5xx 视为失败
func DefaultResponseClassifier(resp *http.Response, identity string) bool {
	return resp.StatusCode >= http.StatusInternalServerError
}

// Transport 带熔断保护的 http.RoundTripper。
//
// 每次调用先向熔断器请求前置决策，拒绝时传输不会被调用，
// 返回的 *OpenCircuitError 携带服务身份和原始请求；
// 放行时把传输结局（经分类器判定）回写给熔断器。
//
// 使用示例:
//
//	client := &http.Client{Transport: breaker.NewTransport(brk)}
type Transport struct {
	base         http.RoundTripper
	breaker      Breaker
	key          HTTPKeyFunc
	classifyResp ResponseClassifier
	classifyErr  ErrorClassifier
}

// TransportOption Transport 选项函数
type TransportOption func(*Transport)

// WithBase 设置底层传输，默认 http.DefaultTransport
func WithBase(rt http.RoundTripper) TransportOption {
	return func(t *Transport) {
		if rt != nil {
			t.base = rt
		}
	}
}

// WithHTTPKeyFunc 设置身份派生策略，默认 MethodURLKey()
func WithHTTPKeyFunc(f HTTPKeyFunc) TransportOption {
	return func(t *Transport) {
		if f != nil {
			t.key = f
		}
	}
}

// WithResponseClassifier 设置响应分类器，默认 5xx 视为失败
func WithResponseClassifier(f ResponseClassifier) TransportOption {
	return func(t *Transport) {
		if f != nil {
			t.classifyResp = f
		}
	}
}

// WithTransportErrorClassifier 设置传输错误分类器，
// 默认除上下文取消/超时以外的错误都视为失败
func WithTransportErrorClassifier(f ErrorClassifier) TransportOption {
	return func(t *Transport) {
		if f != nil {
			t.classifyErr = f
		}
	}
}

// NewTransport 创建带熔断保护的 RoundTripper
func NewTransport(b Breaker, opts ...TransportOption) *Transport {
	t := &Transport{
		base:         http.DefaultTransport,
		breaker:      b,
		key:          MethodURLKey(),
		classifyResp: DefaultResponseClassifier,
		classifyErr:  DefaultErrorClassifier,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// RoundTrip 实现 http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	identity := t.key(req)
	ctx := req.Context()

	prev, err := t.breaker.Allow(ctx, identity, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if t.classifyErr(err, identity) {
			_ = t.breaker.Record(ctx, identity, prev, true)
		}
		return nil, err
	}

	_ = t.breaker.Record(ctx, identity, prev, t.classifyResp(resp, identity))
	return resp, nil
}
