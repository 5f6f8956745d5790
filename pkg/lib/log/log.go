// Package log 提供 go-reactive 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，提供按组件区分的日志 API。
// 组件 logger 在每次调用时解析 slog.Default()，支持运行时切换输出。
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Level 日志级别
type Level = slog.Level

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// Default 返回默认 logger
func Default() *slog.Logger {
	return slog.Default()
}

// New 创建新的 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSON 创建 JSON 格式的 logger
func NewJSON(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 使用方式：
//
//	var logger = log.Logger("core/eventbus")
//	logger.Warn("subscriber buffer full", "dropped", n)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) base() *slog.Logger {
	return slog.Default().With("component", l.component)
}

// Enabled 当前组件是否启用指定级别
func (l *LazyLogger) Enabled(level slog.Level) bool {
	if !componentEnabled(l.component, level) {
		return false
	}
	return slog.Default().Enabled(context.Background(), level)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	if componentEnabled(l.component, LevelDebug) {
		l.base().Debug(msg, args...)
	}
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	if componentEnabled(l.component, LevelInfo) {
		l.base().Info(msg, args...)
	}
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	if componentEnabled(l.component, LevelWarn) {
		l.base().Warn(msg, args...)
	}
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	if componentEnabled(l.component, LevelError) {
		l.base().Error(msg, args...)
	}
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	if componentEnabled(l.component, LevelDebug) {
		l.base().DebugContext(ctx, msg, args...)
	}
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	if componentEnabled(l.component, LevelWarn) {
		l.base().WarnContext(ctx, msg, args...)
	}
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.base().With(args...)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

// init 默认输出 info 级别文本日志；设置了 REACTIVE_LOG_LEVEL 或 REACTIVE_LOG_FORMAT 时按环境变量配置
func init() {
	if os.Getenv("REACTIVE_LOG_LEVEL") != "" || os.Getenv("REACTIVE_LOG_FORMAT") != "" {
		ConfigureFromEnv()
		return
	}
	SetDefault(New(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
