// Package reactive 提供面向异步值流的组合工具
//
// go-reactive 在 Flow（冷流）与 StateFlow（持有当前值的热流）之上，
// 提供事件多播、回调适配、组合、共享状态与首事件耗时测量。
//
// # 核心概念
//
//   - Flow: 冷流，每次 Collect 独立运行上游
//   - StateFlow: 总是持有当前值，新收集者先收到当前值
//   - Dispatcher: 执行上下文；main 为单 goroutine FIFO，background 为有界并发
//   - Scope: 作用域，取消后其中启动的所有任务随之结束
//
// # 快速开始
//
//	rt, err := reactive.Start(ctx, reactive.WithPreset(reactive.PresetDefault))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	// 多播事件流：第一个订阅者出现时 onActive，最后一个离开时 onInactive
//	clicks := reactive.NewEventFlow[Click](rt,
//	    eventbus.OnActive(listener.Start),
//	    eventbus.OnInactive(listener.Stop))
//
//	// 回调适配：register 在 main 上执行，收集结束时注销一次
//	locations := reactive.ObserverFlowFunc(rt, func(sink pkgif.Sink[Location]) (pkgif.Registration, error) {
//	    id := provider.Add(func(l Location) { sink.Send(l) })
//	    return observer.RegistrationFunc(func() { provider.Remove(id) }), nil
//	})
//
//	// 共享状态：第一个读者出现后启动，之后一直保持
//	current := reactive.PersistingStateIn(rt, nil, locations, reactive.Lazily, Location{})
//
//	// 组合与测量
//	all := reactive.CombineToList(a, b, c)
//	measured := reactive.MeasureTimeTillFirstEvent(rt, all, "startup")
//
// # 文件组织
//
//	reactive/
//	├── doc.go        # 包文档
//	├── version.go    # 版本信息
//	├── runtime.go    # Runtime：New、Start、Stop、Close
//	├── reactive.go   # 泛型入口：事件流、回调适配、组合、共享、测量
//	├── options.go    # WithXxx 配置选项
//	├── presets.go    # 预设配置（Default、Minimal、Test）
//	├── fx.go         # Fx 应用装配
//	└── errors.go     # 错误定义
//
// # 预设配置
//
//	reactive.PresetDefault  默认配置（推荐）
//	reactive.PresetMinimal  低资源占用，关闭流指标
//	reactive.PresetTest     测试环境，WhileSubscribed 立即停止，日志降为 warn
//
// # 分层
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  1. API Layer                                               │
//	│     reactive.New(), reactive.Start(), 泛型入口               │
//	├─────────────────────────────────────────────────────────────┤
//	│  2. Operators                                               │
//	│     eventbus, observer, combine, sharing, timing            │
//	├─────────────────────────────────────────────────────────────┤
//	│  3. Core                                                    │
//	│     flow, state, dispatch, lifecycle, metrics               │
//	└─────────────────────────────────────────────────────────────┘
package reactive
