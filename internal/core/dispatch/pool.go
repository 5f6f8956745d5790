package dispatch

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// Pool 有界并发的后台调度器（"background" 执行上下文）
//
// 任务之间不保证顺序。
type Pool struct {
	name string
	sem  *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ pkgif.Dispatcher = (*Pool)(nil)

// NewPool 创建后台调度器，workers <= 0 时使用 GOMAXPROCS
func NewPool(name string, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		name:   name,
		sem:    semaphore.NewWeighted(int64(workers)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Name 返回调度器名称
func (p *Pool) Name() string { return p.name }

// Dispatch 提交任务
//
// 任务等待并发额度时不阻塞调用方。
func (p *Pool) Dispatch(ctx context.Context, task pkgif.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// 停止后等待额度的任务不再受并发限制，直接执行
		if err := p.sem.Acquire(p.ctx, 1); err == nil {
			defer p.sem.Release(1)
		}

		safeTask(ctx, p.name, task)
	}()
	return nil
}

// Stop 停止接收新任务并等待已接收的任务结束
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
