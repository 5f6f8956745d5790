// Package eventbus 实现进程内多播事件流
//
// 提供泛型、非阻塞的事件发布/订阅机制，支持：
//   - 多订阅者，每个订阅者独立缓冲
//   - 活跃状态钩子（订阅者数量 0→1 / 1→0）
//   - 可配置的投递执行上下文
//   - 丢弃计数与限速告警
//   - 并发安全
//
// # 快速开始
//
//	clicks := eventbus.New[Click](
//	    eventbus.WithName("clicks"),
//	    eventbus.OnActive(func() { startListening() }),
//	    eventbus.OnInactive(func() { stopListening() }),
//	)
//	defer clicks.Close()
//
//	// 通道方式订阅
//	sub, _ := clicks.Subscribe()
//	defer sub.Close()
//	go func() {
//	    for c := range sub.Out() {
//	        // 处理事件
//	    }
//	}()
//
//	// Flow 方式订阅，ctx 取消时自动取消订阅
//	go clicks.Collect(ctx, func(c Click) error { return nil })
//
//	clicks.Emit(Click{X: 1, Y: 2})
//
// # 投递语义
//
// Emit 只投递给调用时已存在的订阅者，尽力而为：订阅者缓冲区已满或已关闭时
// 该订阅者丢弃此值，Emit 永不阻塞。同一订阅者按发射顺序接收，
// 不同订阅者之间不保证顺序。
//
// # Fx 模块
//
//	app := fx.New(
//	    dispatch.Module(),
//	    metrics.Module,
//	    eventbus.Module(),
//	    fx.Invoke(func(s *eventbus.Settings) {
//	        clicks := eventbus.NewWith[Click](s, eventbus.WithName("clicks"))
//	        // ...
//	    }),
//	)
//
// # 并发安全
//
//   - 订阅/取消订阅：同一把锁保护订阅者列表与 0↔1 状态检测
//   - 钩子：按状态变化顺序串行执行，执行时不持有锁
//   - 取消订阅：closeOnce 防止重复移除
package eventbus
