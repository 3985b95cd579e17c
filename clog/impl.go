package clog

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// namespaceKey 命名空间在日志输出中的字段名
const namespaceKey = "namespace"

// loggerImpl 是 Logger 接口的 slog 实现
type loggerImpl struct {
	slogger   *slog.Logger
	level     *slog.LevelVar // 整棵 Logger 树共享，SetLevel 全局生效
	namespace string
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(config *Config) (Logger, error) {
	parsed, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	level.Set(parsed)

	var out *os.File
	switch config.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return &loggerImpl{
		slogger: slog.New(handler),
		level:   level,
	}, nil
}

func (l *loggerImpl) log(level Level, msg string, fields ...Field) {
	if !l.slogger.Enabled(context.Background(), level) {
		return
	}
	attrs := fields
	if l.namespace != "" {
		attrs = make([]Field, 0, len(fields)+1)
		attrs = append(attrs, slog.String(namespaceKey, l.namespace))
		attrs = append(attrs, fields...)
	}
	l.slogger.LogAttrs(context.Background(), level, msg, attrs...)
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

func (l *loggerImpl) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &loggerImpl{
		slogger:   l.slogger.With(args...),
		level:     l.level,
		namespace: l.namespace,
	}
}

func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	joined := strings.Join(parts, ".")
	if joined == "" {
		return l
	}
	ns := joined
	if l.namespace != "" {
		ns = l.namespace + "." + joined
	}
	return &loggerImpl{
		slogger:   l.slogger,
		level:     l.level,
		namespace: ns,
	}
}

func (l *loggerImpl) SetLevel(level Level) error {
	l.level.Set(level)
	return nil
}
