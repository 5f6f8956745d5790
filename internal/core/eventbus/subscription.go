package eventbus

import (
	"sync"

	"github.com/google/uuid"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription[T any] struct {
	id  string
	bus *EventFlow[T]
	out chan T

	mu     sync.Mutex
	closed bool

	closeOnce    sync.Once
	shutdownOnce sync.Once
}

func newSubscription[T any](bus *EventFlow[T], buffer int) *Subscription[T] {
	return &Subscription[T]{
		id:  uuid.NewString(),
		bus: bus,
		out: make(chan T, buffer),
	}
}

// ID 返回订阅 ID
func (s *Subscription[T]) ID() string {
	return s.id
}

// Out 返回事件通道
//
// 订阅关闭或事件流关闭后通道被关闭。
func (s *Subscription[T]) Out() <-chan T {
	return s.out
}

// Close 取消订阅
//
// Close 是并发安全的，可以多次调用，只会从事件流移除一次。
// 关闭后会：
//  1. 从事件流移除订阅（可能触发 onInactive）
//  2. 关闭通道，之后的投递被丢弃
func (s *Subscription[T]) Close() error {
	s.closeOnce.Do(func() {
		s.bus.detach(s)
		s.shutdown()
	})
	return nil
}

// offer 非阻塞投递，通道已满或已关闭时返回 false
func (s *Subscription[T]) offer(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.out <- value:
		return true
	default:
		return false
	}
}

// shutdown 关闭通道
func (s *Subscription[T]) shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.out)
		s.mu.Unlock()
	})
}
