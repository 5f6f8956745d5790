// Package lifecycle 提供作用域（Scope）与后台任务（Job）
//
// Scope 持有一个可取消的根上下文，负责：
//  1. 启动后台任务并登记
//  2. 统一取消并等待所有任务结束
//  3. 记录失败任务（失败不影响同一作用域内的其他任务）
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-reactive/internal/core/dispatch"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/lifecycle")

// ============================================================================
//                              启动模式
// ============================================================================

// StartMode 任务启动模式
type StartMode int

const (
	// StartDispatched 启动动作排入作用域的调度器
	//
	// 同一执行上下文中已排队的任务（例如其他订阅者的注册）先于本任务运行。
	StartDispatched StartMode = iota

	// StartUndispatched 立即启动任务 goroutine
	//
	// fn 总会运行，即使作用域在 goroutine 开始前已被取消，此时 fn 收到已结束的 ctx。
	StartUndispatched
)

// String 返回启动模式字符串表示
func (m StartMode) String() string {
	switch m {
	case StartDispatched:
		return "dispatched"
	case StartUndispatched:
		return "undispatched"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ============================================================================
//                              Scope
// ============================================================================

// Scope 任务作用域
type Scope struct {
	name       string
	dispatcher pkgif.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	jobs   map[uint64]*Job
	nextID atomic.Uint64
	wg     sync.WaitGroup
}

// Option 作用域选项
type Option func(*Scope)

// WithDispatcher 设置 StartDispatched 任务的调度器，默认 Immediate
func WithDispatcher(d pkgif.Dispatcher) Option {
	return func(s *Scope) {
		s.dispatcher = d
	}
}

// WithName 设置作用域名称，用于日志
func WithName(name string) Option {
	return func(s *Scope) {
		s.name = name
	}
}

// NewScope 创建作用域
//
// parent 取消时作用域随之取消。
func NewScope(parent context.Context, opts ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s := &Scope{
		name:   "scope",
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[uint64]*Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = dispatch.OrImmediate(s.dispatcher)
	return s
}

// Name 返回作用域名称
func (s *Scope) Name() string { return s.name }

// Context 返回作用域上下文
func (s *Scope) Context() context.Context { return s.ctx }

// Dispatcher 返回作用域调度器
func (s *Scope) Dispatcher() pkgif.Dispatcher { return s.dispatcher }

// IsActive 作用域是否未被取消
func (s *Scope) IsActive() bool { return s.ctx.Err() == nil }

// Launch 在作用域中启动后台任务
//
// fn 收到的 ctx 在任务被取消或作用域取消时结束。
// 排队启动的任务在作用域已取消时直接以 context.Canceled 结束，fn 不会运行；
// StartUndispatched 任务总会进入 fn。
func (s *Scope) Launch(fn func(ctx context.Context) error, opts ...LaunchOption) *Job {
	o := launchOptions{mode: StartDispatched}
	for _, opt := range opts {
		opt(&o)
	}

	id := s.nextID.Add(1)
	if o.name == "" {
		o.name = fmt.Sprintf("%s#%d", s.name, id)
	}

	jobCtx, cancel := context.WithCancel(s.ctx)
	job := &Job{
		id:     id,
		name:   o.name,
		mode:   o.mode,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.wg.Add(1)
	s.mu.Unlock()

	start := func() { go s.run(jobCtx, job, fn) }

	if o.mode == StartUndispatched {
		start()
		return job
	}

	err := s.dispatcher.Dispatch(jobCtx, func(context.Context) { start() })
	if err != nil {
		if jobCtx.Err() != nil {
			s.finish(job, jobCtx.Err())
			return job
		}
		logger.Warn("任务调度失败，直接启动",
			"scope", s.name,
			"job", job.name,
			"dispatcher", s.dispatcher.Name(),
			"err", err)
		start()
	}
	return job
}

func (s *Scope) run(ctx context.Context, job *Job, fn func(ctx context.Context) error) {
	if err := ctx.Err(); err != nil && job.mode != StartUndispatched {
		s.finish(job, err)
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job %s panicked: %v", job.name, r)
			}
		}()
		err = fn(ctx)
	}()

	if err != nil && ctx.Err() == nil {
		logger.Error("任务失败",
			"scope", s.name,
			"job", job.name,
			"err", err)
	}
	s.finish(job, err)
}

func (s *Scope) finish(job *Job, err error) {
	job.complete(err)

	s.mu.Lock()
	delete(s.jobs, job.id)
	s.mu.Unlock()
	s.wg.Done()
}

// Jobs 返回尚未结束的任务快照
func (s *Scope) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

// Cancel 取消作用域及其所有任务
func (s *Scope) Cancel() {
	s.cancel()
}

// Wait 等待所有任务结束或 ctx 取消
func (s *Scope) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 取消作用域并等待任务结束
func (s *Scope) Close(ctx context.Context) error {
	s.Cancel()
	if err := s.Wait(ctx); err != nil {
		logger.Warn("等待任务结束超时", "scope", s.name, "remaining", len(s.Jobs()))
		return err
	}
	logger.Debug("作用域已关闭", "scope", s.name)
	return nil
}

// Child 创建子作用域
//
// 子作用域随父作用域取消，但父作用域的 Wait 不等待子作用域的任务。
func (s *Scope) Child(name string) *Scope {
	return NewScope(s.ctx, WithName(name), WithDispatcher(s.dispatcher))
}
