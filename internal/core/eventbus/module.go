package eventbus

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config   `optional:"true"`
	Main       pkgif.Dispatcher `name:"main" optional:"true"`
	Background pkgif.Dispatcher `name:"background" optional:"true"`
	Reporter   metrics.Reporter `optional:"true"`
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Settings *Settings
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideSettings),
	)
}

// ProvideSettings 提供事件流默认选项
func ProvideSettings(p Params) Result {
	cfg := config.DefaultEventBusConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.EventBus
	}

	return Result{
		Settings: NewSettings(cfg, dispatch.Select(cfg.DeliverOn, p.Main, p.Background), p.Reporter),
	}
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "eventbus"
	// Description 模块描述
	Description = "多播事件流模块，提供带活跃状态钩子的非阻塞发布/订阅"
)
