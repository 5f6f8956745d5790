package config

import (
	"errors"
	"time"

	"github.com/dep2p/go-reactive/pkg/lib/log"
)

// ============================================================================
// EventBus
// ============================================================================

// EventBusConfig 事件流配置
type EventBusConfig struct {
	// BufferSize 每个订阅者的缓冲区大小
	BufferSize int `json:"buffer_size"`

	// DropLogInterval 丢弃告警日志的最小间隔
	DropLogInterval Duration `json:"drop_log_interval"`

	// DeliverOn 投递所用的执行上下文：immediate / main / background
	DeliverOn string `json:"deliver_on"`
}

// DefaultEventBusConfig 返回默认事件流配置
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		BufferSize:      16,
		DropLogInterval: Duration(time.Second),
		DeliverOn:       DispatcherImmediate,
	}
}

// Validate 验证事件流配置
func (c EventBusConfig) Validate() error {
	if c.BufferSize <= 0 {
		return errors.New("buffer_size must be positive")
	}
	if c.DropLogInterval < 0 {
		return errors.New("drop_log_interval must not be negative")
	}
	return validateDispatcherName(c.DeliverOn)
}

// ============================================================================
// Observer
// ============================================================================

// ObserverConfig 回调注册适配器配置
type ObserverConfig struct {
	// BufferSize 回调到收集者之间的缓冲区大小
	BufferSize int `json:"buffer_size"`

	// RegisterOn 执行 register/unregister 的执行上下文
	RegisterOn string `json:"register_on"`
}

// DefaultObserverConfig 返回默认适配器配置
func DefaultObserverConfig() ObserverConfig {
	return ObserverConfig{
		BufferSize: 64,
		RegisterOn: DispatcherMain,
	}
}

// Validate 验证适配器配置
func (c ObserverConfig) Validate() error {
	if c.BufferSize <= 0 {
		return errors.New("buffer_size must be positive")
	}
	return validateDispatcherName(c.RegisterOn)
}

// ============================================================================
// Dispatch
// ============================================================================

// 执行上下文名称
const (
	DispatcherImmediate  = "immediate"
	DispatcherMain       = "main"
	DispatcherBackground = "background"
)

// DispatchConfig 执行上下文配置
type DispatchConfig struct {
	// MainQueueSize main 上下文队列长度
	MainQueueSize int `json:"main_queue_size"`

	// BackgroundWorkers background 上下文并发度，0 表示 GOMAXPROCS
	BackgroundWorkers int `json:"background_workers"`

	// StopTimeout 停止时等待队列排空的最长时间
	StopTimeout Duration `json:"stop_timeout"`
}

// DefaultDispatchConfig 返回默认执行上下文配置
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		MainQueueSize:     1024,
		BackgroundWorkers: 0,
		StopTimeout:       Duration(5 * time.Second),
	}
}

// Validate 验证执行上下文配置
func (c DispatchConfig) Validate() error {
	if c.MainQueueSize <= 0 {
		return errors.New("main_queue_size must be positive")
	}
	if c.BackgroundWorkers < 0 {
		return errors.New("background_workers must not be negative")
	}
	if c.StopTimeout <= 0 {
		return errors.New("stop_timeout must be positive")
	}
	return nil
}

func validateDispatcherName(name string) error {
	switch name {
	case DispatcherImmediate, DispatcherMain, DispatcherBackground:
		return nil
	default:
		return errors.New("unknown dispatcher " + name)
	}
}

// ============================================================================
// Sharing
// ============================================================================

// SharingConfig 共享状态配置（WhileSubscribed 默认参数）
type SharingConfig struct {
	// StopTimeout 最后一个订阅者离开后延迟停止上游的时间
	StopTimeout Duration `json:"stop_timeout"`

	// ReplayExpiration 停止后延迟发出 STOP_AND_RESET 的时间，负数表示永不
	ReplayExpiration Duration `json:"replay_expiration"`
}

// DefaultSharingConfig 返回默认共享配置
func DefaultSharingConfig() SharingConfig {
	return SharingConfig{
		StopTimeout:      Duration(5 * time.Second),
		ReplayExpiration: Duration(-1),
	}
}

// Validate 验证共享配置
func (c SharingConfig) Validate() error {
	if c.StopTimeout < 0 {
		return errors.New("stop_timeout must not be negative")
	}
	return nil
}

// ============================================================================
// Metrics
// ============================================================================

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用流指标收集
	Enabled bool `json:"enabled"`

	// MaxTracked 按名称统计的最大流数量，超出后淘汰最久未使用的统计
	MaxTracked int `json:"max_tracked"`

	// SnapshotInterval 周期性输出指标快照日志的间隔，0 表示关闭
	SnapshotInterval Duration `json:"snapshot_interval"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    true,
		MaxTracked: 1024,
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.MaxTracked <= 0 {
		return errors.New("max_tracked must be positive")
	}
	if c.SnapshotInterval < 0 {
		return errors.New("snapshot_interval must not be negative")
	}
	return nil
}

// ============================================================================
// Log
// ============================================================================

// LogConfig 日志配置
type LogConfig struct {
	// Level 默认级别：debug / info / warn / error
	Level string `json:"level"`

	// Components 组件级别覆盖，例如 {"core/eventbus": "debug"}
	Components map[string]string `json:"components,omitempty"`

	// Format text 或 json
	Format string `json:"format"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if _, ok := log.ParseLevel(c.Level); !ok {
		return errors.New("invalid level " + c.Level)
	}
	for component, level := range c.Components {
		if _, ok := log.ParseLevel(level); !ok {
			return errors.New("invalid level " + level + " for " + component)
		}
	}
	if c.Format != "text" && c.Format != "json" {
		return errors.New("format must be text or json")
	}
	return nil
}

// ToLogConfig 转换为 pkg/lib/log 配置
func (c LogConfig) ToLogConfig() *log.Config {
	cfg := &log.Config{
		DefaultLevel:    log.LevelInfo,
		ComponentLevels: make(map[string]log.Level),
	}
	if level, ok := log.ParseLevel(c.Level); ok {
		cfg.DefaultLevel = level
	}
	for component, name := range c.Components {
		if level, ok := log.ParseLevel(name); ok {
			cfg.ComponentLevels[component] = level
		}
	}
	if c.Format == "json" {
		cfg.Format = log.FormatJSON
	}
	return cfg
}
