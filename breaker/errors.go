package breaker

import (
	"fmt"

	"github.com/ceyewan/fusebox/xerrors"
)

// 错误定义
var (
	// ErrCacheNil 缓存依赖为空
	ErrCacheNil = xerrors.New("breaker: cache is nil")

	// ErrIdentityEmpty 服务身份为空
	ErrIdentityEmpty = xerrors.New("breaker: identity is empty")

	// ErrOpen 哨兵错误：熔断器处于打开状态。
	// 拒绝时实际返回 *OpenCircuitError，可用 xerrors.Is(err, ErrOpen) 判断。
	ErrOpen = xerrors.New("breaker: circuit breaker is open")
)

// OpenCircuitError 熔断拒绝错误，携带被拒绝请求的服务身份和原始请求。
//
// 调用方应将其视为快速失败：在状态变化之前，对同一服务的重试
// 仍会被同样拒绝。
type OpenCircuitError struct {
	// Identity 被熔断的服务身份
	Identity string
	// Request 被拒绝的原始请求（如 *http.Request），可能为 nil
	Request any
}

func (e *OpenCircuitError) Error() string {
	return fmt.Sprintf("breaker: circuit open for service %q", e.Identity)
}

// Is 支持 xerrors.Is(err, ErrOpen)
func (e *OpenCircuitError) Is(target error) bool {
	return target == ErrOpen
}
