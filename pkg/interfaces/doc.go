// Package interfaces 定义 go-reactive 的公共接口
//
// 本包按关注点组织接口定义，采用扁平命名（无层级前缀）：
//
// # Flow 接口
//
//   - flow.go           - Flow、StateFlow、MutableStateFlow、EventFlow
//
// # 执行接口
//
//   - dispatcher.go     - Dispatcher 执行上下文、Job 后台任务
//
// # 适配接口
//
//   - observer.go       - Sink、Registrar、Registration（register/unregister 模式）
//   - sharing.go        - SharingStarted、SharingCommand（共享启动策略）
//
// # 依赖方向
//
//	reactive → internal/core/* → pkg/interfaces
//
// 禁止反向依赖。
//
// # 设计原则
//
// 本包仅包含纯接口定义与少量值类型，实现位于 internal/core 下对应目录。
package interfaces
