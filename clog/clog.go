// Package clog 为 fusebox 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，便于区分组件来源
//   - 零外部依赖（仅依赖 Go 标准库）
//   - 支持运行时动态调整日志级别
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("breaker created", clog.String("service", "user-api"))
//
// 组件内部统一通过 WithNamespace 派生子 Logger：
//
//	sub := logger.WithNamespace("breaker")
package clog

// Logger 日志接口，提供结构化日志记录功能。
//
// 支持四个日志级别：Debug、Info、Warn、Error。
// 通过 With 预设字段，通过 WithNamespace 派生带命名空间的子 Logger。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger，预设字段出现在所有日志中。
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger。
	// 命名空间以 "." 连接并追加在已有命名空间之后，
	// 例如 WithNamespace("breaker") 之后再 WithNamespace("store")
	// 得到 "breaker.store"。
	WithNamespace(parts ...string) Logger

	// SetLevel 运行时动态调整日志级别，作用于同一棵 Logger 树。
	SetLevel(level Level) error
}

// New 创建一个新的 Logger 实例。
//
// config 为 nil 时使用默认配置（info 级别、console 格式、stdout 输出）。
func New(config *Config) (Logger, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return newLogger(config)
}

// Discard 返回一个丢弃所有日志的静默 Logger。
//
// 组件未注入 Logger 时的默认值，保证调用方无需判空。
func Discard() Logger {
	return &noopLogger{}
}

type noopLogger struct{}

func (l *noopLogger) Debug(msg string, fields ...Field)    {}
func (l *noopLogger) Info(msg string, fields ...Field)     {}
func (l *noopLogger) Warn(msg string, fields ...Field)     {}
func (l *noopLogger) Error(msg string, fields ...Field)    {}
func (l *noopLogger) With(fields ...Field) Logger          { return l }
func (l *noopLogger) WithNamespace(parts ...string) Logger { return l }
func (l *noopLogger) SetLevel(level Level) error           { return nil }
