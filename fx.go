package reactive

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/eventbus"
	"github.com/dep2p/go-reactive/internal/core/lifecycle"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	"github.com/dep2p/go-reactive/internal/core/observer"
	"github.com/dep2p/go-reactive/internal/core/sharing"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var fxLogger = log.Logger("reactive/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. dispatch：main / background / immediate 执行上下文
//  3. lifecycle：绑定 main 的根作用域（停止时先于调度器关闭）
//  4. metrics：流指标，可选注册到 Prometheus
//  5. eventbus / observer / sharing：由配置决定的默认选项
//  6. 用户扩展与 Runtime 组件注入
func buildFxApp(cfg *config.Config, o *options, rt *Runtime) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),

		// ════════════════════════════════════════════════════════════════════
		// 2. 执行上下文与作用域
		// ════════════════════════════════════════════════════════════════════
		dispatch.Module(),
		lifecycle.Module(),

		// ════════════════════════════════════════════════════════════════════
		// 3. 指标
		// ════════════════════════════════════════════════════════════════════
		metrics.Module,

		// ════════════════════════════════════════════════════════════════════
		// 4. 流组件默认选项
		// ════════════════════════════════════════════════════════════════════
		eventbus.Module(),
		observer.Module(),
		sharing.Module(),
	}

	if o.metrics.registerer != nil {
		reg := o.metrics.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
		fxLogger.Debug("已启用 Prometheus 指标注册")
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 6. Runtime 组件注入与 Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectRuntimeComponents(rt)),
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}

// runtimeInjectParams Runtime 组件注入参数
type runtimeInjectParams struct {
	fx.In

	Main       pkgif.Dispatcher `name:"main"`
	Background pkgif.Dispatcher `name:"background"`
	Scope      *lifecycle.Scope
	Reporter   metrics.Reporter

	EventBus *eventbus.Settings
	Observer *observer.Settings
	Sharing  *sharing.Settings
}

// injectRuntimeComponents 创建 Runtime 组件注入函数
func injectRuntimeComponents(rt *Runtime) interface{} {
	return func(p runtimeInjectParams) {
		rt.main = p.Main
		rt.background = p.Background
		rt.scope = p.Scope
		rt.reporter = p.Reporter
		rt.eventBus = p.EventBus
		rt.observer = p.Observer
		rt.sharing = p.Sharing
	}
}
