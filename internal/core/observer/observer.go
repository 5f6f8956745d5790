package observer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/observer")

// ============================================================================
// Flow 实现
// ============================================================================

// Flow 把 register/unregister 形式的回调转换为冷流
//
// 每次 Collect 在配置的执行上下文中注册一次，结束时在同一执行上下文中
// 恰好注销一次。注册失败时流以该错误结束，不会注销。
type Flow[T any] struct {
	registrar pkgif.Registrar[T]
	opts      options

	active atomic.Int64
}

var _ pkgif.Flow[int] = (*Flow[int])(nil)

// NewFlow 创建适配器
func NewFlow[T any](registrar pkgif.Registrar[T], opts ...Option) *Flow[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.dispatcher = dispatch.OrImmediate(o.dispatcher)
	o.reporter = metrics.OrNop(o.reporter)

	return &Flow[T]{
		registrar: registrar,
		opts:      o,
	}
}

// FromFunc 以函数形式的注册方创建适配器
func FromFunc[T any](register func(sink pkgif.Sink[T]) (pkgif.Registration, error), opts ...Option) *Flow[T] {
	return NewFlow[T](RegistrarFunc[T](register), opts...)
}

// Name 返回名称
func (f *Flow[T]) Name() string { return f.opts.name }

// Active 返回当前正在收集的数量
func (f *Flow[T]) Active() int { return int(f.active.Load()) }

// Collect 实现 pkgif.Flow
//
// 返回条件：
//   - ctx 取消：返回 ctx.Err()
//   - collector 返回错误：返回该错误
//   - 注册方调用 sink.Close(err)：缓冲中的值全部交付后返回 err
func (f *Flow[T]) Collect(ctx context.Context, collector pkgif.Collector[T]) error {
	s := newSink[T](f.opts.name, f.opts.bufSize, f.opts.reporter)

	var reg pkgif.Registration
	err := dispatch.Run(ctx, f.opts.dispatcher, func(context.Context) error {
		r, err := f.registrar.Register(s)
		if err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		s.Close(nil)
		logger.Debug("注册失败", "flow", f.opts.name, "err", err)
		return err
	}
	if reg == nil {
		reg = noRegistration
	}

	f.opts.reporter.LogSubscribers(f.opts.name, int(f.active.Add(1)))

	var once sync.Once
	unregister := func() {
		once.Do(func() {
			// 外层可能已取消，注销必须执行完毕
			_ = dispatch.RunUncancellable(ctx, f.opts.dispatcher, func(context.Context) error {
				reg.Unregister()
				return nil
			})
			f.opts.reporter.LogSubscribers(f.opts.name, int(f.active.Add(-1)))
			logger.Debug("已注销", "flow", f.opts.name)
		})
	}
	defer unregister()
	defer s.Close(nil)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-s.out:
			if !ok {
				return s.closeErr()
			}
			if err := collector(v); err != nil {
				return err
			}
		}
	}
}
