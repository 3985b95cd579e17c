package testkit

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/fusebox/connector"
)

// NewRedis 启动一个进程内 miniredis 并返回已连接的连接器。
// 两者都随测试结束自动清理；返回 miniredis 便于 FastForward 等时间操作。
func NewRedis(t *testing.T) (connector.RedisConnector, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)

	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, srv
}
