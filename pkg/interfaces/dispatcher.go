// Package interfaces 定义 go-reactive 公共接口
//
// 本文件定义执行上下文（Dispatcher）与后台任务（Job）接口。
package interfaces

import "context"

// Task 可调度的任务
//
// 传入的 ctx 由调度器提供，可能携带调度器标记（用于同上下文内联执行）。
type Task func(ctx context.Context)

// Dispatcher 定义执行上下文
//
// 常见实现：
//   - Immediate：调用方 goroutine 内联执行
//   - Serial：单 goroutine FIFO（"main" 上下文）
//   - Pool：有界并发后台池（"background" 上下文）
type Dispatcher interface {
	// Dispatch 调度任务
	//
	// 返回错误表示任务未被接受（调度器已停止、队列已满或 ctx 已取消）。
	Dispatch(ctx context.Context, task Task) error

	// Name 调度器名称，用于日志
	Name() string
}

// Job 定义后台任务句柄
type Job interface {
	// Done 任务结束时关闭
	Done() <-chan struct{}

	// Err 任务结束原因；未结束时返回 nil
	Err() error

	// Cancel 取消任务
	Cancel()

	// Wait 等待任务结束或 ctx 取消
	Wait(ctx context.Context) error
}
