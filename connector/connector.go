// Package connector 管理 fusebox 对外部基础设施的连接。
//
// 当前只包含 Redis 连接器：分布式指标存储依赖一个共享的 Redis 实例，
// 由 Connector 统一负责客户端的创建、健康检查与关闭。
// Cache 等上层组件不拥有连接，只通过 GetClient 借用。
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connector 连接器通用生命周期接口
type Connector interface {
	// Connect 建立连接并验证可达性
	Connect(ctx context.Context) error

	// HealthCheck 检查连接健康状态
	HealthCheck(ctx context.Context) error

	// Close 关闭连接，释放资源
	Close() error
}

// RedisConnector Redis 连接器接口。
//
// 提供对 Redis 服务器的连接管理，调用者通过 GetClient 执行实际的数据操作。
// 客户端在创建时即可用（go-redis 懒连接），Connect 仅做可达性验证；
// Close() 之后不应再使用 GetClient 返回的客户端。
type RedisConnector interface {
	Connector
	GetClient() *redis.Client
}
