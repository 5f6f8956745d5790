package reactive

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 预设配置
	preset *Preset

	// 完整配置（WithConfig / WithConfigFile）
	config *config.Config

	// 日志配置
	log struct {
		level      string
		components map[string]string
	}

	// 执行上下文
	dispatch struct {
		mainQueueSize     int
		backgroundWorkers *int
	}

	// 指标
	metrics struct {
		enable     *bool
		registerer prometheus.Registerer
	}

	// 用户扩展
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toInternalConfig 转换为内部配置
func (o *options) toInternalConfig() *config.Config {
	cfg := config.NewConfig()
	if o.config != nil {
		cfg = o.config.Clone()
	}

	// 应用预设
	if o.preset != nil {
		o.preset.Apply(cfg)
	}

	// 覆盖: 日志
	if o.log.level != "" {
		cfg.Log.Level = o.log.level
	}
	if len(o.log.components) > 0 {
		if cfg.Log.Components == nil {
			cfg.Log.Components = make(map[string]string, len(o.log.components))
		}
		for component, level := range o.log.components {
			cfg.Log.Components[component] = level
		}
	}

	// 覆盖: 执行上下文
	if o.dispatch.mainQueueSize > 0 {
		cfg.Dispatch.MainQueueSize = o.dispatch.mainQueueSize
	}
	if o.dispatch.backgroundWorkers != nil {
		cfg.Dispatch.BackgroundWorkers = *o.dispatch.backgroundWorkers
	}

	// 覆盖: 指标
	if o.metrics.enable != nil {
		cfg.Metrics.Enabled = *o.metrics.enable
	}

	return cfg
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置选项
// ════════════════════════════════════════════════════════════════════════════

// WithPreset 使用预设配置
//
// 预设在 WithConfig 之后应用，其他单项选项可以覆盖预设中的值。
func WithPreset(preset *Preset) Option {
	return func(o *options) error {
		if preset == nil {
			return fmt.Errorf("preset is nil")
		}
		o.preset = preset
		return nil
	}
}

// WithConfig 使用完整配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		o.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		cfg, err := config.FromJSON(data)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithLogLevel 设置默认日志级别：debug / info / warn / error
func WithLogLevel(level string) Option {
	return func(o *options) error {
		if _, ok := log.ParseLevel(level); !ok {
			return fmt.Errorf("invalid log level %q", level)
		}
		o.log.level = level
		return nil
	}
}

// WithComponentLogLevel 设置组件日志级别，例如 WithComponentLogLevel("core/eventbus", "debug")
func WithComponentLogLevel(component, level string) Option {
	return func(o *options) error {
		if _, ok := log.ParseLevel(level); !ok {
			return fmt.Errorf("invalid log level %q for %s", level, component)
		}
		if o.log.components == nil {
			o.log.components = make(map[string]string)
		}
		o.log.components[component] = level
		return nil
	}
}

// WithMainQueueSize 设置 main 执行上下文的队列长度
func WithMainQueueSize(size int) Option {
	return func(o *options) error {
		if size <= 0 {
			return fmt.Errorf("main queue size must be positive, got %d", size)
		}
		o.dispatch.mainQueueSize = size
		return nil
	}
}

// WithBackgroundWorkers 设置 background 执行上下文的并发度，0 表示 GOMAXPROCS
func WithBackgroundWorkers(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("background workers must not be negative, got %d", n)
		}
		o.dispatch.backgroundWorkers = &n
		return nil
	}
}

// WithMetrics 启用或关闭流指标
func WithMetrics(enable bool) Option {
	return func(o *options) error {
		o.metrics.enable = &enable
		return nil
	}
}

// WithPrometheus 启动时把流指标注册到 reg
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return fmt.Errorf("prometheus registerer is nil")
		}
		o.metrics.registerer = reg
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
