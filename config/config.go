// Package config 提供 fusebox 的统一配置加载。
//
// 配置来源与优先级（高到低）：
//  1. 环境变量（前缀 FUSEBOX_，点号换下划线，如 FUSEBOX_BREAKER_MIN_REQUESTS）
//  2. .env 文件（存在时注入进程环境）
//  3. 配置文件（默认 fusebox.yaml，搜索 ./ 和 ./config）
//
// 基本使用：
//
//	cfg, _ := config.Load()
//	logger, _ := clog.New(&cfg.Log)
//	brk, _ := breaker.New(c, &cfg.Breaker, breaker.WithLogger(logger))
package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/fusebox/breaker"
	"github.com/ceyewan/fusebox/cache"
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/connector"
	"github.com/ceyewan/fusebox/xerrors"
)

// Config fusebox 各组件配置的聚合
type Config struct {
	// Log 日志配置
	Log clog.Config `mapstructure:"log" json:"log" yaml:"log"`

	// Redis Redis 连接配置，仅 cache.driver 为 "redis" 时需要
	Redis connector.RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`

	// Cache 计数缓存配置
	Cache cache.Config `mapstructure:"cache" json:"cache" yaml:"cache"`

	// Breaker 熔断器配置
	Breaker breaker.Config `mapstructure:"breaker" json:"breaker" yaml:"breaker"`
}

// Load 加载配置。
//
// 找不到配置文件不是错误：此时返回只由环境变量和默认值组成的配置。
func Load(opts ...Option) (*Config, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}

	v := viper.New()
	v.SetConfigName(o.name)
	v.SetConfigType(o.fileType)
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}

	// 环境变量优先于配置文件
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// .env 文件：存在就加载，不存在忽略
	_ = godotenv.Load(o.dotenv)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !xerrors.As(err, &notFound) {
			return nil, xerrors.Wrap(err, "read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, xerrors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

// Watch 监听配置文件变更，每次变更重新解析并回调。
// 回调在 viper 的监听 goroutine 中执行；解析失败时不回调，保留旧配置。
func Watch(onChange func(*Config), opts ...Option) error {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}

	v := viper.New()
	v.SetConfigName(o.name)
	v.SetConfigType(o.fileType)
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return xerrors.Wrap(err, "read config file")
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
