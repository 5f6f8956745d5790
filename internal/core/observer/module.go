package observer

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

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
	return fx.Module("observer",
		fx.Provide(ProvideSettings),
	)
}

// ProvideSettings 提供适配器默认选项
func ProvideSettings(p Params) Result {
	cfg := config.DefaultObserverConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Observer
	}
	return Result{
		Settings: NewSettings(cfg, dispatch.Select(cfg.RegisterOn, p.Main, p.Background), p.Reporter),
	}
}
