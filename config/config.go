// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.EventBus.BufferSize = 64
//	cfg.Dispatch.BackgroundWorkers = 4
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"fmt"
)

// Config 是 go-reactive 的完整配置结构
//
// 配置按照功能模块组织：
//   - EventBus: 多播事件流
//   - Observer: 回调注册适配器
//   - Dispatch: 执行上下文（main / background）
//   - Sharing: 共享状态默认策略参数
//   - Metrics: 流指标
//   - Log: 日志
type Config struct {
	// EventBus 事件流配置
	EventBus EventBusConfig `json:"event_bus"`

	// Observer 回调注册适配器配置
	Observer ObserverConfig `json:"observer"`

	// Dispatch 执行上下文配置
	Dispatch DispatchConfig `json:"dispatch"`

	// Sharing 共享状态配置
	Sharing SharingConfig `json:"sharing"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		EventBus: DefaultEventBusConfig(),
		Observer: DefaultObserverConfig(),
		Dispatch: DefaultDispatchConfig(),
		Sharing:  DefaultSharingConfig(),
		Metrics:  DefaultMetricsConfig(),
		Log:      DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.EventBus.Validate(); err != nil {
		return fmt.Errorf("event_bus: %w", err)
	}
	if err := c.Observer.Validate(); err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Sharing.Validate(); err != nil {
		return fmt.Errorf("sharing: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// FromJSON 从 JSON 加载配置
//
// 未出现的字段保留默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Log.Components != nil {
		clone.Log.Components = make(map[string]string, len(c.Log.Components))
		for k, v := range c.Log.Components {
			clone.Log.Components[k] = v
		}
	}
	return &clone
}
