package dispatch

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-reactive/config"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Serial     *Serial
	Pool       *Pool
	Main       pkgif.Dispatcher `name:"main"`
	Background pkgif.Dispatcher `name:"background"`
	Immediate  pkgif.Dispatcher `name:"immediate"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("dispatch",
		fx.Provide(ProvideDispatchers),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideDispatchers 按配置创建 main / background / immediate 调度器
func ProvideDispatchers(p Params) Result {
	cfg := config.DefaultDispatchConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Dispatch
	}

	serial := NewSerial(config.DispatcherMain, cfg.MainQueueSize)
	pool := NewPool(config.DispatcherBackground, cfg.BackgroundWorkers)

	return Result{
		Serial:     serial,
		Pool:       pool,
		Main:       serial,
		Background: pool,
		Immediate:  Immediate(),
	}
}

// Select 按名称选择调度器，未知名称返回 Immediate
func Select(name string, main, background pkgif.Dispatcher) pkgif.Dispatcher {
	switch name {
	case config.DispatcherMain:
		return OrImmediate(main)
	case config.DispatcherBackground:
		return OrImmediate(background)
	default:
		return Immediate()
	}
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Serial     *Serial
	Pool       *Pool
	UnifiedCfg *config.Config `optional:"true"`
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			input.Serial.Start()
			logger.Debug("执行上下文已启动", "main", input.Serial.Name(), "background", input.Pool.Name())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			timeout := config.DefaultDispatchConfig().StopTimeoutOrDefault()
			if input.UnifiedCfg != nil {
				timeout = input.UnifiedCfg.Dispatch.StopTimeoutOrDefault()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return multierr.Combine(
				input.Serial.Stop(ctx),
				input.Pool.Stop(ctx),
			)
		},
	})
}
