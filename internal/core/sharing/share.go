package sharing

import (
	"context"
	"errors"
	"fmt"

	"github.com/dep2p/go-reactive/internal/core/flow"
	"github.com/dep2p/go-reactive/internal/core/lifecycle"
	"github.com/dep2p/go-reactive/internal/core/state"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/sharing")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrNoValue 共享任务在产生第一个值之前结束
	ErrNoValue = errors.New("sharing ended before the first value")
)

// ============================================================================
// 选项
// ============================================================================

type options struct {
	name  string
	reset bool
}

// Option 共享选项
type Option func(*options)

// WithName 设置名称，用于日志和任务名
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// ResetOnStopAndReset 收到 STOP_AND_RESET 时恢复初始值
//
// 默认保留最后一个值。无初始值的共享状态会被清空，收集者在下一个值到达前不会收到任何值。
func ResetOnStopAndReset() Option {
	return func(o *options) {
		o.reset = true
	}
}

// ============================================================================
// State
// ============================================================================

// State 共享状态
//
// 持有驱动它的共享任务，State 可达时任务不会被回收；任务本身不引用 State。
type State[T any] struct {
	cell *state.MutableStateFlow[T]
	job  *lifecycle.Job
}

var _ pkgif.StateFlow[int] = (*State[int])(nil)

// Value 同步读取当前值
func (s *State[T]) Value() T { return s.cell.Value() }

// Load 读取当前值；尚无值时 ok 为 false
func (s *State[T]) Load() (T, bool) { return s.cell.Load() }

// Collect 收集共享状态，收集期间计为一个订阅者
func (s *State[T]) Collect(ctx context.Context, collector pkgif.Collector[T]) error {
	return s.cell.Collect(ctx, collector)
}

// SubscriptionCount 返回订阅者计数
func (s *State[T]) SubscriptionCount() pkgif.StateFlow[int] {
	return s.cell.SubscriptionCount()
}

// Job 返回共享任务
//
// 上游失败时 Job().Err() 返回失败原因，State 保留最后一个值不再更新。
func (s *State[T]) Job() *lifecycle.Job { return s.job }

// ============================================================================
// 共享
// ============================================================================

// StateIn 在 scope 中共享 upstream，返回以 initial 为初始值的共享状态
//
// 任一时刻至多存在一个对 upstream 的收集。StateIn 不阻塞。
func StateIn[T any](scope *lifecycle.Scope, upstream pkgif.Flow[T], started pkgif.SharingStarted, initial T, opts ...Option) *State[T] {
	o := buildOptions(opts)
	cell := state.New(initial)
	reset := func() { cell.SetValue(initial) }

	return &State[T]{
		cell: cell,
		job:  launch(scope, upstream, started, cell, reset, o),
	}
}

// StateInAwait 在 scope 中共享 upstream，等待第一个值后返回共享状态
//
// 等待期间本身计为一个订阅者，因此 Lazily 与 WhileSubscribed 会启动上游。
// ctx 取消时取消共享任务并返回 ctx.Err()；共享任务在产生值之前结束时
// 返回其失败原因或 ErrNoValue。
//
// StateInAwait 阻塞调用方 goroutine，不要在 scope 的串行执行上下文内以 Eagerly 调用。
func StateInAwait[T any](ctx context.Context, scope *lifecycle.Scope, upstream pkgif.Flow[T], started pkgif.SharingStarted, opts ...Option) (*State[T], error) {
	o := buildOptions(opts)
	cell := state.Empty[T]()

	s := &State[T]{
		cell: cell,
		job:  launch(scope, upstream, started, cell, cell.Clear, o),
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.job.Done():
			cancel()
		case <-waitCtx.Done():
		}
	}()

	_, err := flow.First[T](waitCtx, s)
	if err == nil || cell.HasValue() {
		return s, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.job.Cancel()
		return nil, ctxErr
	}
	if jobErr := s.job.Err(); jobErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoValue, jobErr)
	}
	return nil, ErrNoValue
}

func buildOptions(opts []Option) options {
	o := options{name: "state"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// launch 启动共享任务
//
// Eagerly 以 StartDispatched 启动，同一执行上下文中已排队的订阅先完成；
// 其他策略以 StartUndispatched 启动。订阅者计数是状态流，
// 任务启动前发生的订阅也会被观察到。
func launch[T any](scope *lifecycle.Scope, upstream pkgif.Flow[T], started pkgif.SharingStarted, cell *state.MutableStateFlow[T], reset func(), o options) *lifecycle.Job {
	if started == nil {
		started = Eagerly
	}
	mode := lifecycle.StartUndispatched
	if _, ok := started.(eagerly); ok {
		mode = lifecycle.StartDispatched
	}

	emit := func(v T) error {
		cell.SetValue(v)
		return nil
	}

	run := func(ctx context.Context) error {
		switch started.(type) {
		case eagerly:
			return upstream.Collect(ctx, emit)
		case lazily:
			if _, err := flow.FirstWhere(ctx, pkgif.Flow[int](cell.SubscriptionCount()), hasSubscribers); err != nil {
				return err
			}
			logger.Debug("首个订阅者出现，开始共享", "state", o.name)
			return upstream.Collect(ctx, emit)
		default:
			commands := flow.DistinctUntilChanged(started.Command(cell.SubscriptionCount()))
			return flow.CollectLatest(ctx, commands, func(ctx context.Context, cmd pkgif.SharingCommand) error {
				logger.Debug("共享命令", "state", o.name, "command", cmd)
				switch cmd {
				case pkgif.SharingStart:
					return upstream.Collect(ctx, emit)
				case pkgif.SharingStopAndResetReplayCache:
					if o.reset {
						reset()
					}
				}
				return nil
			})
		}
	}

	return scope.Launch(run,
		lifecycle.WithStartMode(mode),
		lifecycle.WithJobName("share:"+o.name))
}
