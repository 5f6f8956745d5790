package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件流已关闭
	ErrClosed = errors.New("eventbus closed")
)

// ============================================================================
// EventFlow 实现
// ============================================================================

// EventFlow 热多播事件流
//
// 每次 Emit 只投递给调用时已存在的订阅者；投递使用非阻塞发送，
// 缓冲区已满或已关闭的订阅者直接丢弃该值，发射方永不阻塞。
//
// 订阅者数量从 0 变为 1 时调用 onActive，从 1 变为 0 时调用 onInactive。
// 钩子按状态变化的顺序串行执行；钩子内同步订阅或取消订阅同一个事件流会死锁。
type EventFlow[T any] struct {
	opts options

	mu         sync.Mutex
	sinks      []*Subscription[T] // 订阅者列表（按订阅顺序）
	closed     bool
	hookTicket uint64 // 下一次状态变化的序号，受 mu 保护

	// 待投递队列与排空标记，受 mu 保护；同一时刻至多一个排空任务
	pending  []delivery[T]
	draining bool

	// 钩子按序号依次执行
	hookMu   sync.Mutex
	hookCond *sync.Cond
	hookTurn uint64

	dropCount   atomic.Int64
	dropLimiter *rate.Limiter
}

var _ pkgif.EventFlow[int] = (*EventFlow[int])(nil)

// delivery 一次发射：值与发射时的订阅者快照
type delivery[T any] struct {
	sinks []*Subscription[T]
	value T
}

// New 创建事件流
func New[T any](opts ...Option) *EventFlow[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.dispatcher = dispatch.OrImmediate(o.dispatcher)
	o.reporter = metrics.OrNop(o.reporter)

	limit := rate.Inf
	if o.dropLogInterval > 0 {
		limit = rate.Every(o.dropLogInterval)
	}

	b := &EventFlow[T]{
		opts:        o,
		dropLimiter: rate.NewLimiter(limit, 1),
	}
	b.hookCond = sync.NewCond(&b.hookMu)
	return b
}

// Name 返回事件流名称
func (b *EventFlow[T]) Name() string { return b.opts.name }

// ============================================================================
// 订阅
// ============================================================================

// Subscribe 订阅事件流
//
// 返回的订阅必须 Close；事件流关闭后返回 ErrClosed。
func (b *EventFlow[T]) Subscribe(opts ...SubscribeOption) (*Subscription[T], error) {
	settings := subscribeSettings{buffer: b.opts.bufSize}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.buffer < 0 {
		settings.buffer = 0
	}

	sub := newSubscription(b, settings.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.sinks = append(b.sinks, sub)
	count := len(b.sinks)
	activated := count == 1
	var ticket uint64
	if activated {
		ticket = b.takeTicketLocked()
	}
	b.mu.Unlock()

	if activated {
		b.runHookInOrder(ticket, b.opts.onActive, "onActive")
	}

	b.opts.reporter.LogSubscribers(b.opts.name, count)
	logger.Debug("订阅事件流",
		"flow", b.opts.name,
		"subscription", log.TruncateID(sub.id, 8),
		"subscribers", count)

	return sub, nil
}

// detach 移除订阅，订阅不存在时无操作
func (b *EventFlow[T]) detach(sub *Subscription[T]) {
	b.mu.Lock()
	removed := false
	for i, s := range b.sinks {
		if s == sub {
			// 保持顺序，拷贝到新切片，不影响 Emit 已取得的快照
			sinks := make([]*Subscription[T], 0, len(b.sinks)-1)
			sinks = append(sinks, b.sinks[:i]...)
			sinks = append(sinks, b.sinks[i+1:]...)
			b.sinks = sinks
			removed = true
			break
		}
	}
	count := len(b.sinks)
	deactivated := removed && count == 0
	var ticket uint64
	if deactivated {
		ticket = b.takeTicketLocked()
	}
	b.mu.Unlock()

	if !removed {
		return
	}
	if deactivated {
		b.runHookInOrder(ticket, b.opts.onInactive, "onInactive")
	}

	b.opts.reporter.LogSubscribers(b.opts.name, count)
	logger.Debug("取消订阅事件流",
		"flow", b.opts.name,
		"subscription", log.TruncateID(sub.id, 8),
		"subscribers", count)
}

// takeTicketLocked 为一次状态变化分配序号，调用方持有 mu
func (b *EventFlow[T]) takeTicketLocked() uint64 {
	t := b.hookTicket
	b.hookTicket++
	return t
}

// runHookInOrder 按序号执行钩子
//
// 执行钩子时不持有任何锁，钩子内可以调用 IsActive 或 Emit。
func (b *EventFlow[T]) runHookInOrder(ticket uint64, hook func(), name string) {
	b.hookMu.Lock()
	for b.hookTurn != ticket {
		b.hookCond.Wait()
	}
	b.hookMu.Unlock()

	b.runHook(hook, name)

	b.hookMu.Lock()
	b.hookTurn++
	b.hookCond.Broadcast()
	b.hookMu.Unlock()
}

func (b *EventFlow[T]) runHook(hook func(), name string) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("事件流钩子 panic", "flow", b.opts.name, "hook", name, "panic", r)
		}
	}()
	hook()
}

// Collect 实现 pkgif.Flow
//
// 订阅事件流并把事件转发给 collector，直到 ctx 取消、collector 返回错误
// 或事件流关闭（返回 nil）。返回前恰好取消订阅一次。
func (b *EventFlow[T]) Collect(ctx context.Context, collector pkgif.Collector[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sub, err := b.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-sub.Out():
			if !ok {
				return nil
			}
			if err := collector(v); err != nil {
				return err
			}
		}
	}
}

// ============================================================================
// 发射
// ============================================================================

// Emit 发射事件
//
// 订阅者快照在调用时取得，投递在配置的执行上下文中进行。
// 每个事件流的投递经由一个有序队列，同一时刻只有一个排空任务，
// 因此即使执行上下文是并发池，同一订阅者也按发射顺序接收。
func (b *EventFlow[T]) Emit(value T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	// detach 总是替换切片，此处直接持有引用即可
	sinks := b.sinks
	if len(sinks) == 0 {
		b.mu.Unlock()
		b.opts.reporter.LogEmit(b.opts.name)
		return
	}
	b.pending = append(b.pending, delivery[T]{sinks: sinks, value: value})
	startDrain := !b.draining
	b.draining = true
	b.mu.Unlock()

	b.opts.reporter.LogEmit(b.opts.name)
	if !startDrain {
		return
	}

	err := b.opts.dispatcher.Dispatch(context.Background(), func(context.Context) {
		b.drain()
	})
	if err != nil {
		b.mu.Lock()
		rejected := b.pending
		b.pending = nil
		b.draining = false
		b.mu.Unlock()

		n := 0
		for _, d := range rejected {
			n += len(d.sinks)
		}
		b.recordDrops(n, "dispatch failed: "+err.Error())
	}
}

// drain 按入队顺序投递，队列为空时结束
func (b *EventFlow[T]) drain() {
	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.pending = nil
			b.draining = false
			b.mu.Unlock()
			return
		}
		d := b.pending[0]
		b.pending[0] = delivery[T]{}
		b.pending = b.pending[1:]
		b.mu.Unlock()

		b.deliver(d.sinks, d.value)
	}
}

func (b *EventFlow[T]) deliver(sinks []*Subscription[T], value T) {
	delivered := 0
	for _, sub := range sinks {
		if sub.offer(value) {
			delivered++
		}
	}

	b.opts.reporter.LogDelivered(b.opts.name, delivered)
	if dropped := len(sinks) - delivered; dropped > 0 {
		b.recordDrops(dropped, "subscriber buffer full or closed")
	}
}

func (b *EventFlow[T]) recordDrops(n int, reason string) {
	total := b.dropCount.Add(int64(n))
	b.opts.reporter.LogDrop(b.opts.name, n)

	// 限速，避免日志泛滥
	if b.dropLimiter.Allow() {
		logger.Warn("慢订阅者检测",
			"flow", b.opts.name,
			"dropped", total,
			"reason", reason)
	}
}

// ============================================================================
// 状态查询
// ============================================================================

// IsActive 是否存在订阅者
func (b *EventFlow[T]) IsActive() bool {
	return b.SubscriberCount() > 0
}

// SubscriberCount 返回当前订阅者数量
func (b *EventFlow[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sinks)
}

// Dropped 返回累计丢弃的投递次数
func (b *EventFlow[T]) Dropped() int64 {
	return b.dropCount.Load()
}

// ============================================================================
// 关闭
// ============================================================================

// Close 关闭事件流
//
// 所有订阅者的通道被关闭，活跃状态下触发 onInactive。
// 之后的 Emit 无操作，Subscribe 返回 ErrClosed。
func (b *EventFlow[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sinks := b.sinks
	b.sinks = nil
	deactivated := len(sinks) > 0
	var ticket uint64
	if deactivated {
		ticket = b.takeTicketLocked()
	}
	b.mu.Unlock()

	for _, sub := range sinks {
		sub.shutdown()
	}

	if deactivated {
		b.runHookInOrder(ticket, b.opts.onInactive, "onInactive")
		b.opts.reporter.LogSubscribers(b.opts.name, 0)
	}

	logger.Debug("事件流已关闭", "flow", b.opts.name, "detached", len(sinks))
	return nil
}

// IsClosed 事件流是否已关闭
func (b *EventFlow[T]) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
