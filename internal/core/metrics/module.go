package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// MaxTracked 按名称跟踪的最大流数量
	MaxTracked int

	// SnapshotInterval 快照日志间隔，0 表示关闭
	SnapshotInterval config.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	m := config.DefaultMetricsConfig()
	if cfg != nil {
		m = cfg.Metrics
	}
	return Config{
		Enabled:          m.Enabled,
		MaxTracked:       m.MaxTracked,
		SnapshotInterval: m.SnapshotInterval,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
//
// 提供 Reporter；若容器中存在 prometheus.Registerer，则在启动时注册 Collector。
var Module = fx.Module("metrics",
	fx.Provide(
		NewReporterFromParams,
	),
	fx.Invoke(registerLifecycle),
)

// NewReporterFromParams 从参数创建 Reporter
//
// 关闭指标时返回 Nop，调用方无需判空。
func NewReporterFromParams(p Params) Reporter {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return Nop()
	}
	return NewFlowCounter(WithMaxTracked(cfg.MaxTracked))
}

type lifecycleParams struct {
	fx.In

	LC         fx.Lifecycle
	Reporter   Reporter
	Registerer prometheus.Registerer `optional:"true"`
	UnifiedCfg *config.Config        `optional:"true"`
}

func registerLifecycle(p lifecycleParams) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return
	}

	collector := NewCollector(p.Reporter)
	snapshots := NewSnapshotCollector(p.Reporter, nil)

	p.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if p.Registerer != nil {
				if err := p.Registerer.Register(collector); err != nil {
					return err
				}
			}
			if cfg.SnapshotInterval > 0 {
				snapshots.Start(cfg.SnapshotInterval.Duration())
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			snapshots.Stop()
			if p.Registerer != nil {
				p.Registerer.Unregister(collector)
			}
			return nil
		},
	})
}
