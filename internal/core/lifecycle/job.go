package lifecycle

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// LaunchOption 任务启动选项
type LaunchOption func(*launchOptions)

type launchOptions struct {
	mode StartMode
	name string
}

// WithStartMode 设置启动模式
func WithStartMode(mode StartMode) LaunchOption {
	return func(o *launchOptions) {
		o.mode = mode
	}
}

// WithJobName 设置任务名称
func WithJobName(name string) LaunchOption {
	return func(o *launchOptions) {
		o.name = name
	}
}

// Job 后台任务句柄
type Job struct {
	id     uint64
	name   string
	mode   StartMode
	cancel context.CancelFunc

	once sync.Once
	mu   sync.RWMutex
	err  error
	done chan struct{}
}

var _ pkgif.Job = (*Job)(nil)

// Name 返回任务名称
func (j *Job) Name() string { return j.name }

// Mode 返回启动模式
func (j *Job) Mode() StartMode { return j.mode }

// Done 任务结束时关闭
func (j *Job) Done() <-chan struct{} { return j.done }

// Err 返回任务结束原因
//
// 未结束或正常结束时返回 nil。
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// IsActive 任务是否仍在运行
func (j *Job) IsActive() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

// Cancel 取消任务
func (j *Job) Cancel() {
	j.cancel()
}

// Wait 等待任务结束，返回任务结束原因
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) complete(err error) {
	j.once.Do(func() {
		j.mu.Lock()
		j.err = err
		j.mu.Unlock()
		j.cancel()
		close(j.done)
	})
}
