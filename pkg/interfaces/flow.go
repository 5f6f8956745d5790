// Package interfaces 定义 go-reactive 公共接口
//
// 本文件定义 Flow 相关接口：冷流、状态流与事件流。
package interfaces

import "context"

// ============================================================================
//                              Flow
// ============================================================================

// Collector 流的收集回调
//
// 返回非 nil 错误将终止收集，该错误原样返回给 Collect 的调用者。
type Collector[T any] func(value T) error

// Flow 定义冷流接口
//
// Collect 阻塞直到以下任一情况发生：
//   - 流正常结束：返回 nil
//   - ctx 被取消：返回 ctx.Err()
//   - collector 返回错误：返回该错误
//   - 上游失败：返回上游错误
type Flow[T any] interface {
	Collect(ctx context.Context, collector Collector[T]) error
}

// ============================================================================
//                              StateFlow
// ============================================================================

// StateFlow 定义只读状态流
//
// 收集时先发出当前值，之后发出每次更新；中间更新可能被合并（最新值优先）。
type StateFlow[T any] interface {
	Flow[T]

	// Value 同步读取当前值
	Value() T
}

// MutableStateFlow 定义可写状态流
type MutableStateFlow[T any] interface {
	StateFlow[T]

	// SetValue 设置新值并唤醒所有收集者
	SetValue(value T)

	// SubscriptionCount 返回当前收集者数量的状态流
	SubscriptionCount() StateFlow[int]
}

// ============================================================================
//                              EventFlow
// ============================================================================

// EventFlow 定义热多播事件流
//
// 事件只投递给 Emit 调用时已存在的订阅者，尽力而为，不阻塞发射者。
type EventFlow[T any] interface {
	Flow[T]

	// Emit 向所有活跃订阅者发射事件
	Emit(value T)

	// IsActive 是否存在活跃订阅者
	IsActive() bool
}
