package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// ComponentLevels 各组件的日志级别
	ComponentLevels map[string]slog.Level

	// Format 输出格式
	Format Format
}

// LevelFor 获取指定组件的日志级别
func (c *Config) LevelFor(component string) slog.Level {
	if level, ok := c.ComponentLevels[component]; ok {
		return level
	}
	return c.DefaultLevel
}

var (
	activeMu sync.RWMutex
	active   *Config
)

// Apply 应用配置
//
// 默认 logger 的级别取所有组件中最低的级别，组件级别过滤在 LazyLogger 中完成。
func Apply(cfg *Config) {
	if cfg == nil {
		return
	}

	minLevel := cfg.DefaultLevel
	for _, level := range cfg.ComponentLevels {
		if level < minLevel {
			minLevel = level
		}
	}

	opts := &slog.HandlerOptions{Level: minLevel}
	if cfg.Format == FormatJSON {
		SetDefault(NewJSON(os.Stderr, opts))
	} else {
		SetDefault(New(os.Stderr, opts))
	}

	activeMu.Lock()
	active = cfg
	activeMu.Unlock()
}

// Reset 清除已应用的组件级别配置（仅用于测试）
func Reset() {
	activeMu.Lock()
	active = nil
	activeMu.Unlock()
}

func componentEnabled(component string, level slog.Level) bool {
	activeMu.RLock()
	cfg := active
	activeMu.RUnlock()

	if cfg == nil {
		return true
	}
	return level >= cfg.LevelFor(component)
}

// ConfigFromEnv 从环境变量解析配置
//
// 环境变量:
//   - REACTIVE_LOG_LEVEL: 组件=级别,组件=级别,默认级别
//     示例: core/eventbus=debug,core/sharing=warn,info
//   - REACTIVE_LOG_FORMAT: text 或 json
func ConfigFromEnv() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		ComponentLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}

	if levelStr := os.Getenv("REACTIVE_LOG_LEVEL"); levelStr != "" {
		ParseLevels(cfg, levelStr)
	}

	if strings.EqualFold(os.Getenv("REACTIVE_LOG_FORMAT"), "json") {
		cfg.Format = FormatJSON
	}

	return cfg
}

// ConfigureFromEnv 解析环境变量并立即应用
func ConfigureFromEnv() {
	Apply(ConfigFromEnv())
}

// ParseLevels 解析日志级别配置字符串
// 格式: component=level,component=level,defaultLevel
func ParseLevels(cfg *Config, levelStr string) {
	if cfg.ComponentLevels == nil {
		cfg.ComponentLevels = make(map[string]slog.Level)
	}

	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if component, levelName, ok := strings.Cut(part, "="); ok {
			if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
				cfg.ComponentLevels[strings.TrimSpace(component)] = level
			}
			continue
		}

		if level, ok := ParseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
