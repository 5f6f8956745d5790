package observer

import (
	"sync"

	"github.com/dep2p/go-reactive/internal/core/metrics"
)

// sink 交给注册方的出口
//
// Send 非阻塞；Close 之后的 Send 返回 false。
type sink[T any] struct {
	name     string
	reporter metrics.Reporter
	out      chan T

	mu     sync.Mutex
	closed bool
	err    error
}

func newSink[T any](name string, buffer int, reporter metrics.Reporter) *sink[T] {
	return &sink[T]{
		name:     name,
		reporter: reporter,
		out:      make(chan T, buffer),
	}
}

// Send 写入一个值；缓冲区已满或流已结束时丢弃并返回 false
func (s *sink[T]) Send(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.reporter.LogEmit(s.name)
	select {
	case s.out <- value:
		s.reporter.LogDelivered(s.name, 1)
		return true
	default:
		s.reporter.LogDrop(s.name, 1)
		logger.Debug("回调缓冲区已满，丢弃", "flow", s.name)
		return false
	}
}

// Close 结束流，只有第一次调用生效
func (s *sink[T]) Close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.out)
}

func (s *sink[T]) closeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
