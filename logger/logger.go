package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"grantmigrate/config"
)

// ContextKey 上下文键类型
type ContextKey string

// LoggerKey 上下文中保存 logger 的键
const LoggerKey ContextKey = "logger"

// New 按配置创建日志器，format 为 json 时输出结构化 JSON，否则输出控制台格式
func New(cfg config.LogConfig) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	if cfg.Format == "json" {
		out = os.Stderr
	}
	return NewWithWriter(out).Level(ParseLevel(cfg.Level))
}

// NewWithWriter 使用自定义 writer 创建日志器
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel 解析日志级别，无法识别时回退到 info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithRunID 为本次运行的所有日志附加 run_id
func WithRunID(log zerolog.Logger, runID string) zerolog.Logger {
	return log.With().Str("run_id", runID).Logger()
}

// WithContext 把日志器放入上下文
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, log)
}

// FromContext 从上下文取日志器，没有时返回禁用的日志器
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return log
	}
	return zerolog.Nop()
}
