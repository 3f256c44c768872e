package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const LoggerKey = contextKey("logger")

var globalLogger *zap.SugaredLogger

// ParseLevel maps a configured level name to a zap level. Unknown names are info.
// ParseLevel 将配置的日志级别名称映射为 zap 级别。
func ParseLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes the global logger based on configuration.
// Rows go to stdout, so logs default to stderr.
// Init 根据配置初始化全局日志记录器。日志默认输出到 stderr。
func Init(cfg LoggingConfig) {
	var w io.Writer = os.Stderr

	if cfg.Enabled && cfg.Path != "" {
		// Create directory if not exists
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			// 如果无法创建目录，则输出到 stderr
			globalLogger = New(cfg, os.Stderr)
			globalLogger.Warnf("[WARN]  Failed to create log directory: %v", err)
			return
		}
		w = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	globalLogger = New(cfg, w)
	globalLogger.Debugf("[LOG] Logging initialized (Level: %s, Path: %s)", ParseLevel(cfg.Level), cfg.Path)
}

// New builds a console-encoded logger writing to w at cfg's level.
// New 构建写入 w 的控制台格式日志记录器。
func New(cfg LoggingConfig, w io.Writer) *zap.SugaredLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), ParseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller()).Sugar()
}

// Sync flushes any buffered log entries.
// Sync 刷新所有缓存的日志条目。
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Get returns the logger from context or global logger
// Get 从 Context 或全局日志记录器返回 Logger。
func Get(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok {
			return logger
		}
	}
	if globalLogger == nil {
		// Fallback to a stderr logger if not initialized
		return New(LoggingConfig{Level: "info"}, os.Stderr)
	}
	return globalLogger
}

// WithContext adds logger to context
// WithContext 将 Logger 添加到 Context。
func WithContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}
