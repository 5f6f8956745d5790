package lifecycle

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ModuleParams 模块依赖参数
type ModuleParams struct {
	fx.In

	Main pkgif.Dispatcher `name:"main" optional:"true"`
}

// ModuleResult Fx 模块导出结果
type ModuleResult struct {
	fx.Out

	Scope      *Scope // 默认导出
	NamedScope *Scope `name:"root_scope"` // 命名导出
}

// provideScope 提供根作用域
func provideScope(p ModuleParams) ModuleResult {
	s := NewScope(context.Background(), WithName("root"), WithDispatcher(p.Main))
	return ModuleResult{
		Scope:      s,
		NamedScope: s,
	}
}

// Module 返回 Fx 模块
//
// 提供绑定 main 调度器的根作用域。
// 应在 dispatch 模块之后注册，使停止时先关闭作用域、再停止调度器。
func Module() fx.Option {
	return fx.Module("lifecycle",
		fx.Provide(
			provideScope,
		),
		fx.Invoke(registerLifecycleHooks),
	)
}

// lifecycleHooksParams 生命周期钩子参数
type lifecycleHooksParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Scope      *Scope
	UnifiedCfg *config.Config `optional:"true"`
}

// registerLifecycleHooks 注册生命周期钩子
func registerLifecycleHooks(params lifecycleHooksParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			timeout := config.DefaultDispatchConfig().StopTimeoutOrDefault()
			if params.UnifiedCfg != nil {
				timeout = params.UnifiedCfg.Dispatch.StopTimeoutOrDefault()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return params.Scope.Close(ctx)
		},
	})
}
