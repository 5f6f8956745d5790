// Package state 实现可观察的状态流（MutableStateFlow）
//
// 状态流持有单个最新值。收集者先收到当前值，之后收到每次更新，
// 慢收集者只会看到最新值（中间值被合并）。
//
// 每个状态流维护一个订阅者计数（本身也是状态流），供共享策略驱动上游启停。
package state

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// Option 状态流选项
type Option[T any] func(*MutableStateFlow[T])

// WithEqual 设置相等函数，相等的新值不会触发更新
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(s *MutableStateFlow[T]) {
		s.equal = equal
	}
}

// MutableStateFlow 可写状态流
type MutableStateFlow[T any] struct {
	mu      sync.Mutex
	value   T
	set     bool
	version uint64
	changed chan struct{} // 每次更新时关闭并替换

	equal func(a, b T) bool

	// subs 订阅者计数；计数流自身不再计数
	subs *MutableStateFlow[int]
}

var _ pkgif.MutableStateFlow[int] = (*MutableStateFlow[int])(nil)

// New 创建带初始值的状态流
func New[T any](initial T, opts ...Option[T]) *MutableStateFlow[T] {
	s := Empty[T](opts...)
	s.value = initial
	s.set = true
	return s
}

// Empty 创建尚无值的状态流
//
// 在第一次 SetValue 之前，收集者不会收到任何值，Value 返回零值。
func Empty[T any](opts ...Option[T]) *MutableStateFlow[T] {
	s := newFlow[T](opts...)
	s.subs = newCounter()
	return s
}

func newFlow[T any](opts ...Option[T]) *MutableStateFlow[T] {
	s := &MutableStateFlow[T]{
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newCounter() *MutableStateFlow[int] {
	c := newFlow(WithEqual(func(a, b int) bool { return a == b }))
	c.set = true
	return c
}

// ============================================================================
// 读写
// ============================================================================

// Value 返回当前值
func (s *MutableStateFlow[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// HasValue 是否已有值
func (s *MutableStateFlow[T]) HasValue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Load 同时返回当前值与是否已有值
func (s *MutableStateFlow[T]) Load() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// SetValue 设置新值
func (s *MutableStateFlow[T]) SetValue(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set && s.equal != nil && s.equal(s.value, value) {
		return
	}
	s.value = value
	s.set = true
	s.notifyLocked()
}

// Emit 以 Collector 形式写入，便于直接作为上游的收集回调
func (s *MutableStateFlow[T]) Emit(value T) error {
	s.SetValue(value)
	return nil
}

// Update 原子地基于旧值计算新值
func (s *MutableStateFlow[T]) Update(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.value)
	if s.set && s.equal != nil && s.equal(s.value, next) {
		return
	}
	s.value = next
	s.set = true
	s.notifyLocked()
}

// Clear 回到无值状态
func (s *MutableStateFlow[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return
	}
	var zero T
	s.value = zero
	s.set = false
	s.notifyLocked()
}

func (s *MutableStateFlow[T]) notifyLocked() {
	s.version++
	close(s.changed)
	s.changed = make(chan struct{})
}

// SubscriptionCount 返回订阅者计数流
//
// 对订阅者计数流本身调用时返回 nil。
func (s *MutableStateFlow[T]) SubscriptionCount() pkgif.StateFlow[int] {
	if s.subs == nil {
		return nil
	}
	return s.subs
}

// ============================================================================
// 收集
// ============================================================================

// Collect 收集状态
//
// 收集期间订阅者计数加一，返回前减一。该方法永不正常结束。
func (s *MutableStateFlow[T]) Collect(ctx context.Context, collector pkgif.Collector[T]) error {
	if s.subs != nil {
		s.subs.Update(func(n int) int { return n + 1 })
		defer s.subs.Update(func(n int) int { return n - 1 })
	}

	var (
		lastVersion uint64
		emitted     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		value, set, version, changed := s.value, s.set, s.version, s.changed
		s.mu.Unlock()

		if set && (!emitted || version != lastVersion) {
			emitted = true
			lastVersion = version
			if err := collector(value); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
