package config

import (
	"errors"
	"fmt"
	"time"
)

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 非正的缓冲区大小 -> 使用默认值
//   - 未知的执行上下文名称 -> 使用默认值
//   - 非正的停止超时 -> 使用默认值
//   - 非法日志级别/格式 -> 使用默认值
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if c.EventBus.BufferSize <= 0 {
		c.EventBus.BufferSize = DefaultEventBusConfig().BufferSize
	}
	if c.EventBus.DropLogInterval < 0 {
		c.EventBus.DropLogInterval = DefaultEventBusConfig().DropLogInterval
	}
	if validateDispatcherName(c.EventBus.DeliverOn) != nil {
		c.EventBus.DeliverOn = DefaultEventBusConfig().DeliverOn
	}

	if c.Observer.BufferSize <= 0 {
		c.Observer.BufferSize = DefaultObserverConfig().BufferSize
	}
	if validateDispatcherName(c.Observer.RegisterOn) != nil {
		c.Observer.RegisterOn = DefaultObserverConfig().RegisterOn
	}

	if c.Dispatch.MainQueueSize <= 0 {
		c.Dispatch.MainQueueSize = DefaultDispatchConfig().MainQueueSize
	}
	if c.Dispatch.BackgroundWorkers < 0 {
		c.Dispatch.BackgroundWorkers = 0
	}
	if c.Dispatch.StopTimeout <= 0 {
		c.Dispatch.StopTimeout = DefaultDispatchConfig().StopTimeout
	}

	if c.Sharing.StopTimeout < 0 {
		c.Sharing.StopTimeout = 0
	}

	if c.Metrics.MaxTracked <= 0 {
		c.Metrics.MaxTracked = DefaultMetricsConfig().MaxTracked
	}
	if c.Metrics.SnapshotInterval < 0 {
		c.Metrics.SnapshotInterval = 0
	}

	if c.Log.Validate() != nil {
		components := c.Log.Components
		c.Log = DefaultLogConfig()
		c.Log.Components = components
		if c.Log.Validate() != nil {
			c.Log.Components = nil
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}

	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}

// StopTimeoutOrDefault 返回停止超时，未设置时返回默认值
func (c DispatchConfig) StopTimeoutOrDefault() time.Duration {
	if c.StopTimeout <= 0 {
		return DefaultDispatchConfig().StopTimeout.Duration()
	}
	return c.StopTimeout.Duration()
}
