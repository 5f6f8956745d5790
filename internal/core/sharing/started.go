package sharing

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-reactive/internal/core/flow"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
//                              内置策略
// ============================================================================

type eagerly struct{}

// Command 立即发出 START
func (eagerly) Command(pkgif.StateFlow[int]) pkgif.Flow[pkgif.SharingCommand] {
	return flow.Of(pkgif.SharingStart)
}

func (eagerly) String() string { return "Eagerly" }

type lazily struct{}

// Command 第一个订阅者出现时发出 START，之后不再停止
func (lazily) Command(count pkgif.StateFlow[int]) pkgif.Flow[pkgif.SharingCommand] {
	return flow.New(func(ctx context.Context, emit pkgif.Collector[pkgif.SharingCommand]) error {
		if _, err := flow.FirstWhere(ctx, pkgif.Flow[int](count), hasSubscribers); err != nil {
			return err
		}
		return emit(pkgif.SharingStart)
	})
}

func (lazily) String() string { return "Lazily" }

var (
	// Eagerly 立即开始收集上游，直到作用域结束
	Eagerly pkgif.SharingStarted = eagerly{}

	// Lazily 第一个订阅者出现后开始收集上游，之后不再停止
	Lazily pkgif.SharingStarted = lazily{}
)

func hasSubscribers(n int) bool { return n > 0 }

// ============================================================================
//                              自定义策略
// ============================================================================

// StartedFunc 函数形式的共享策略
type StartedFunc func(count pkgif.StateFlow[int]) pkgif.Flow[pkgif.SharingCommand]

// Command 实现 pkgif.SharingStarted
func (f StartedFunc) Command(count pkgif.StateFlow[int]) pkgif.Flow[pkgif.SharingCommand] {
	return f(count)
}

// WhileSubscribedOption WhileSubscribed 选项
type WhileSubscribedOption func(*whileSubscribed)

// StopTimeout 最后一个订阅者离开后延迟 d 再停止上游
func StopTimeout(d time.Duration) WhileSubscribedOption {
	return func(w *whileSubscribed) {
		w.stopTimeout = d
	}
}

// ReplayExpiration 停止上游后再过 d 发出 STOP_AND_RESET
//
// d 为负数时永不重置（默认），为 0 时停止即重置。
func ReplayExpiration(d time.Duration) WhileSubscribedOption {
	return func(w *whileSubscribed) {
		w.replayExpiration = d
	}
}

// WithClock 设置计时使用的时钟
func WithClock(clk clock.Clock) WhileSubscribedOption {
	return func(w *whileSubscribed) {
		w.clock = clk
	}
}

type whileSubscribed struct {
	stopTimeout      time.Duration
	replayExpiration time.Duration
	clock            clock.Clock
}

// WhileSubscribed 有订阅者时收集上游，订阅者全部离开后按超时停止
func WhileSubscribed(opts ...WhileSubscribedOption) pkgif.SharingStarted {
	w := &whileSubscribed{
		replayExpiration: -1,
		clock:            clock.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.clock == nil {
		w.clock = clock.New()
	}
	if w.stopTimeout < 0 {
		w.stopTimeout = 0
	}
	return w
}

// Command 根据订阅者数量发出命令
//
// 开头的非 START 命令被丢弃，连续重复命令被合并。
func (w *whileSubscribed) Command(count pkgif.StateFlow[int]) pkgif.Flow[pkgif.SharingCommand] {
	commands := flow.FlatMapLatest[int, pkgif.SharingCommand](count, func(n int) pkgif.Flow[pkgif.SharingCommand] {
		if n > 0 {
			return flow.Of(pkgif.SharingStart)
		}
		return flow.New(w.stopSequence)
	})
	return flow.DistinctUntilChanged(flow.DropWhile(commands, func(c pkgif.SharingCommand) bool {
		return c != pkgif.SharingStart
	}))
}

func (w *whileSubscribed) stopSequence(ctx context.Context, emit pkgif.Collector[pkgif.SharingCommand]) error {
	if err := w.delay(ctx, w.stopTimeout); err != nil {
		return err
	}
	if w.replayExpiration < 0 {
		return emit(pkgif.SharingStop)
	}
	if w.replayExpiration > 0 {
		if err := emit(pkgif.SharingStop); err != nil {
			return err
		}
		if err := w.delay(ctx, w.replayExpiration); err != nil {
			return err
		}
	}
	return emit(pkgif.SharingStopAndResetReplayCache)
}

func (w *whileSubscribed) delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := w.clock.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (w *whileSubscribed) String() string {
	return fmt.Sprintf("WhileSubscribed(stopTimeout=%s, replayExpiration=%s)", w.stopTimeout, w.replayExpiration)
}
