package reactive

import (
	"context"

	"github.com/dep2p/go-reactive/internal/core/combine"
	"github.com/dep2p/go-reactive/internal/core/eventbus"
	"github.com/dep2p/go-reactive/internal/core/lifecycle"
	"github.com/dep2p/go-reactive/internal/core/observer"
	"github.com/dep2p/go-reactive/internal/core/sharing"
	"github.com/dep2p/go-reactive/internal/core/timing"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

// SharingCommand 共享策略发出的命令
type SharingCommand = pkgif.SharingCommand

// SharingStarted 共享启动策略
type SharingStarted = pkgif.SharingStarted

// StartedFunc 以函数形式实现的自定义共享策略
type StartedFunc = sharing.StartedFunc

// 共享命令
const (
	SharingStart                   = pkgif.SharingStart
	SharingStop                    = pkgif.SharingStop
	SharingStopAndResetReplayCache = pkgif.SharingStopAndResetReplayCache
)

// 内置共享策略
var (
	// Eagerly 立即开始收集上游，直到作用域结束
	Eagerly = sharing.Eagerly

	// Lazily 第一个读者出现后开始收集上游，之后不再停止
	Lazily = sharing.Lazily
)

// ════════════════════════════════════════════════════════════════════════════
//                              事件流
// ════════════════════════════════════════════════════════════════════════════

// NewEventFlow 创建多播事件流，投递上下文、缓冲区与指标取自运行时配置
//
//	clicks := reactive.NewEventFlow[Click](rt,
//	    eventbus.OnActive(startListening),
//	    eventbus.OnInactive(stopListening))
func NewEventFlow[T any](rt *Runtime, opts ...eventbus.Option) *eventbus.EventFlow[T] {
	return eventbus.NewWith[T](rt.eventBus, opts...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              回调适配器
// ════════════════════════════════════════════════════════════════════════════

// ObserverFlow 把 register/unregister 回调转换为流
//
// register 与 unregister 在配置的执行上下文（默认 main）中执行，
// 注册成功后恰好注销一次。
func ObserverFlow[T any](rt *Runtime, registrar pkgif.Registrar[T], opts ...observer.Option) pkgif.Flow[T] {
	return observer.NewFlowWith[T](rt.observer, registrar, opts...)
}

// ObserverFlowFunc 以函数形式的注册方创建流
func ObserverFlowFunc[T any](rt *Runtime, register func(sink pkgif.Sink[T]) (pkgif.Registration, error), opts ...observer.Option) pkgif.Flow[T] {
	return ObserverFlow[T](rt, observer.RegistrarFunc[T](register), opts...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              组合
// ════════════════════════════════════════════════════════════════════════════

// CombineToList 合并一组流为列表流，所有输入都产生值后开始发出
func CombineToList[T any](flows ...pkgif.Flow[T]) pkgif.Flow[[]T] {
	return combine.ToList(flows)
}

// ════════════════════════════════════════════════════════════════════════════
//                              共享状态
// ════════════════════════════════════════════════════════════════════════════

// WhileSubscribed 返回使用运行时配置默认值的 WhileSubscribed 策略
func (r *Runtime) WhileSubscribed(opts ...sharing.WhileSubscribedOption) SharingStarted {
	return r.sharing.WhileSubscribed(opts...)
}

// PersistingStateIn 在 scope 中共享 upstream，返回以 initial 为初始值的共享状态
//
// scope 为 nil 时使用运行时的根作用域。
func PersistingStateIn[T any](rt *Runtime, scope *lifecycle.Scope, upstream pkgif.Flow[T], started SharingStarted, initial T, opts ...sharing.Option) *sharing.State[T] {
	return sharing.StateIn(rt.scopeOr(scope), upstream, started, initial, opts...)
}

// PersistingStateInAwait 在 scope 中共享 upstream，等待第一个值后返回共享状态
func PersistingStateInAwait[T any](ctx context.Context, rt *Runtime, scope *lifecycle.Scope, upstream pkgif.Flow[T], started SharingStarted, opts ...sharing.Option) (*sharing.State[T], error) {
	return sharing.StateInAwait(ctx, rt.scopeOr(scope), upstream, started, opts...)
}

func (r *Runtime) scopeOr(scope *lifecycle.Scope) *lifecycle.Scope {
	if scope != nil {
		return scope
	}
	return r.scope
}

// ════════════════════════════════════════════════════════════════════════════
//                              测量
// ════════════════════════════════════════════════════════════════════════════

// MeasureTimeTillFirstEvent 记录每次收集到第一个值的耗时，并上报到运行时指标
func MeasureTimeTillFirstEvent[T any](rt *Runtime, upstream pkgif.Flow[T], tag string, opts ...timing.Option) pkgif.Flow[T] {
	return timing.MeasureTimeTillFirstEvent(upstream, tag, append([]timing.Option{timing.WithReporter(rt.reporter)}, opts...)...)
}
