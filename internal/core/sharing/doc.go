// Package sharing 在多个读者之间共享单个上游收集
//
// StateIn / StateInAwait 在作用域中启动一个共享任务，把上游的值写入共享状态；
// 无论有多少读者，任一时刻至多存在一个上游收集。
//
// # 启动策略
//
//   - Eagerly：立即开始，直到作用域结束
//   - Lazily：第一个读者出现后开始，之后不再停止
//   - WhileSubscribed：有读者时收集，读者全部离开后按 StopTimeout 停止，
//     再经 ReplayExpiration 发出 STOP_AND_RESET
//   - StartedFunc：任意读者数量驱动的命令流
//
// 自定义策略的命令经过去重后按最新优先执行：START 开始收集上游，
// STOP 与 STOP_AND_RESET 取消当前收集。默认保留缓存值，
// 使用 ResetOnStopAndReset 在 STOP_AND_RESET 时恢复初始值。
//
// # 启动时序
//
// Eagerly 的启动排入作用域的执行上下文，同一上下文中已排队的订阅先于上游启动；
// 其他策略立即启动任务，订阅者计数是状态流，任务启动前发生的订阅不会丢失。
//
// # 失败
//
// 上游失败时共享任务失败并记录日志，不会重启；State 保留最后一个值，
// 读者可通过 Job().Err() 查看失败原因。
//
//	scope := lifecycle.NewScope(ctx, lifecycle.WithDispatcher(main))
//	items := sharing.StateIn(scope, repo.Items(), sharing.WhileSubscribed(sharing.StopTimeout(5*time.Second)), nil)
//	current := items.Value()
package sharing
