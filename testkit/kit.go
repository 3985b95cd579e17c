// Package testkit 提供 fusebox 各包测试共用的辅助工具。
// Redis 测试不依赖外部服务，统一使用进程内的 miniredis。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/ceyewan/fusebox/clog"
)

// NewLogger 返回一个用于测试的 logger，控制台格式，适合本地调试
func NewLogger() clog.Logger {
	logger, err := clog.New(&clog.Config{Level: "debug", Format: "console"})
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewContext 返回一个带超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}
