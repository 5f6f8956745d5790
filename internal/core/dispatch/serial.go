package dispatch

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// DefaultQueueSize Serial 默认队列长度
const DefaultQueueSize = 1024

type serialKey struct{}

type queued struct {
	ctx  context.Context
	task pkgif.Task
}

// Serial 单 goroutine FIFO 调度器（"main" 执行上下文）
//
// 从本调度器内部（通过任务收到的 ctx）再次调度时任务被内联执行，
// 避免在同一上下文中自我等待造成死锁。
//
// Start 之前提交的任务会排队，在 Start 之后执行。
type Serial struct {
	name  string
	queue chan queued

	mu      sync.RWMutex
	started bool
	stopped bool

	done chan struct{}
}

var _ pkgif.Dispatcher = (*Serial)(nil)

// NewSerial 创建串行调度器
func NewSerial(name string, queueSize int) *Serial {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Serial{
		name:  name,
		queue: make(chan queued, queueSize),
		done:  make(chan struct{}),
	}
}

// Name 返回调度器名称
func (s *Serial) Name() string { return s.name }

// Start 启动事件循环，重复调用无效果
func (s *Serial) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.loop()
}

// Stop 停止接收新任务，执行完已排队任务后返回
//
// ctx 到期时提前返回 ctx.Err()，剩余任务仍会在后台执行完毕。
func (s *Serial) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.queue)
	started := s.started
	s.mu.Unlock()

	if !started {
		close(s.done)
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch 提交任务（非阻塞）
func (s *Serial) Dispatch(ctx context.Context, task pkgif.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// 同上下文内联执行
	if owner, ok := ctx.Value(serialKey{}).(*Serial); ok && owner == s {
		safeTask(ctx, s.name, task)
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrStopped
	}

	select {
	case s.queue <- queued{ctx: ctx, task: task}:
		return nil
	default:
		logger.Warn("调度队列已满", "dispatcher", s.name, "size", cap(s.queue))
		return ErrQueueFull
	}
}

// Pending 返回排队中的任务数
func (s *Serial) Pending() int {
	return len(s.queue)
}

func (s *Serial) loop() {
	defer close(s.done)

	for q := range s.queue {
		ctx := context.WithValue(q.ctx, serialKey{}, s)
		safeTask(ctx, s.name, q.task)
	}
}

// IsCurrent ctx 是否来自 s 正在执行的任务
func (s *Serial) IsCurrent(ctx context.Context) bool {
	owner, ok := ctx.Value(serialKey{}).(*Serial)
	return ok && owner == s
}
