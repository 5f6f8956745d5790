// Package metrics 提供流指标收集
//
// metrics 模块统计事件总线与回调适配器的运行情况：
//   - 发射、投递与丢弃计数（全局/按流名称）
//   - 发射速率（60 秒滑动窗口）
//   - 订阅者数量
//   - 首个事件耗时
//
// # 快速开始
//
//	counter := metrics.NewFlowCounter()
//
//	counter.LogEmit("clicks")
//	counter.LogDelivered("clicks", 2)
//	counter.LogDrop("clicks", 1)
//
//	stats := counter.StatsFor("clicks")
//	fmt.Printf("emitted=%d dropped=%d\n", stats.Emitted, stats.Dropped)
//
// # 内存管理
//
// 按名称的统计保存在容量有限的 LRU 中（WithMaxTracked），
// 短生命周期的流不会导致统计无限增长。
//
// # Prometheus
//
// Collector 把 Reporter 的按名称统计导出为 reactive_flow_* 指标：
//
//	registry := prometheus.NewRegistry()
//	registry.MustRegister(metrics.NewCollector(counter))
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    fx.Invoke(func(reporter metrics.Reporter) {
//	        reporter.LogEmit("clicks")
//	    }),
//	)
//
// 容器中提供 prometheus.Registerer 时，模块在启动时注册 Collector；
// 配置 snapshot_interval 后周期性输出快照日志。
//
// # 并发安全
//
// 所有方法都是并发安全的。
package metrics
