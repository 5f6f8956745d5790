// Package dispatch 实现执行上下文（Dispatcher）
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/dispatch")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrStopped 调度器已停止
	ErrStopped = errors.New("dispatcher stopped")

	// ErrQueueFull 调度队列已满
	ErrQueueFull = errors.New("dispatcher queue full")
)

// ============================================================================
// Immediate
// ============================================================================

type immediate struct{}

// Immediate 返回内联执行的调度器
func Immediate() pkgif.Dispatcher {
	return immediate{}
}

func (immediate) Dispatch(ctx context.Context, task pkgif.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	task(ctx)
	return nil
}

func (immediate) Name() string { return "immediate" }

// OrImmediate d 为 nil 时返回 Immediate
func OrImmediate(d pkgif.Dispatcher) pkgif.Dispatcher {
	if d == nil {
		return Immediate()
	}
	return d
}

// ============================================================================
// Run
// ============================================================================

const (
	runPending int32 = iota
	runRunning
	runSkipped
)

// Run 在 d 上执行 fn 并等待其完成
//
// 若 ctx 在 fn 开始前取消，fn 被跳过并返回 ctx.Err()；
// 一旦 fn 开始执行，Run 总是等待其结束，不会中途放弃。
func Run(ctx context.Context, d pkgif.Dispatcher, fn func(ctx context.Context) error) error {
	d = OrImmediate(d)
	err, dispatched := run(ctx, d, fn)
	if !dispatched {
		return fmt.Errorf("dispatch on %s: %w", d.Name(), err)
	}
	return err
}

// RunUncancellable 在 d 上执行 fn 并等待其完成，忽略 ctx 的取消
//
// 用于注销等清理步骤：即使外层已取消也必须执行完毕。
// d 已停止或队列已满时 fn 在调用方 goroutine 内联执行。
func RunUncancellable(ctx context.Context, d pkgif.Dispatcher, fn func(ctx context.Context) error) error {
	d = OrImmediate(d)
	ctx = context.WithoutCancel(ctx)

	err, dispatched := run(ctx, d, fn)
	if dispatched {
		return err
	}

	logger.Warn("调度失败，清理任务内联执行", "dispatcher", d.Name(), "err", err)
	return safeCall(ctx, fn)
}

// run 返回 fn 的结果；dispatched 为 false 时 err 为调度错误
func run(ctx context.Context, d pkgif.Dispatcher, fn func(ctx context.Context) error) (err error, dispatched bool) {
	var state atomic.Int32
	done := make(chan struct{})

	dispatchErr := d.Dispatch(ctx, func(taskCtx context.Context) {
		if !state.CompareAndSwap(runPending, runRunning) {
			return
		}
		defer close(done)
		err = safeCall(taskCtx, fn)
	})
	if dispatchErr != nil {
		return dispatchErr, false
	}

	select {
	case <-done:
		return err, true
	case <-ctx.Done():
		if state.CompareAndSwap(runPending, runSkipped) {
			return ctx.Err(), true
		}
		<-done
		return err, true
	}
}

func safeCall(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			logger.Error("任务 panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	return fn(ctx)
}

func safeTask(ctx context.Context, name string, task pkgif.Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("任务 panic",
				"dispatcher", name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	task(ctx)
}
