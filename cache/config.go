package cache

// Config 缓存组件统一配置
type Config struct {
	// Driver 缓存驱动: "redis" | "memory" (默认 "redis")
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver"`

	// Prefix 全局 Key 前缀 (e.g. "fusebox:")
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`

	// Serializer 键值序列化器: "json" | "msgpack" (默认 "json")
	// 仅影响 Set/Get，哈希计数器始终按整数存储
	Serializer string `mapstructure:"serializer" json:"serializer" yaml:"serializer"`

	// Memory 进程内缓存配置
	Memory *MemoryConfig `mapstructure:"memory" json:"memory" yaml:"memory"`
}

// MemoryConfig 进程内缓存配置
type MemoryConfig struct {
	// Capacity 缓存最大容量（条目数，默认：10000）
	Capacity int `mapstructure:"capacity" json:"capacity" yaml:"capacity"`
}
