package breaker

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinKeyFunc 从 Gin 请求上下文中派生服务身份
type GinKeyFunc func(c *gin.Context) string

// RouteKey 路由级别身份，按 "方法 路由模板" 熔断。
// 返回示例: "GET /orders/:id"
func RouteKey() GinKeyFunc {
	return func(c *gin.Context) string {
		return c.Request.Method + " " + c.FullPath()
	}
}

// GinMiddleware 创建 Gin 熔断中间件，用于保护依赖单个下游的处理器：
// 处理器持续返回 5xx 时按路由熔断，后续请求直接以 503 快速失败，
// 不再打到已经故障的下游。
//
// keyFunc 为 nil 时默认按路由熔断（RouteKey）。
//
// 使用示例:
//
//	r := gin.New()
//	r.Use(breaker.GinMiddleware(brk, nil))
func GinMiddleware(b Breaker, keyFunc GinKeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = RouteKey()
	}

	return func(c *gin.Context) {
		identity := keyFunc(c)
		if identity == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		prev, err := b.Allow(ctx, identity, c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "circuit open",
			})
			return
		}

		c.Next()

		failure := c.Writer.Status() >= http.StatusInternalServerError
		_ = b.Record(ctx, identity, prev, failure)
	}
}
