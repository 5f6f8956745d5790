package reactive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/eventbus"
	"github.com/dep2p/go-reactive/internal/core/lifecycle"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	"github.com/dep2p/go-reactive/internal/core/observer"
	"github.com/dep2p/go-reactive/internal/core/sharing"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("reactive")

const (
	// startTimeout 启动 Fx 应用的最长时间
	startTimeout = 10 * time.Second

	// closeTimeout Close 等待任务结束的最长时间
	closeTimeout = 10 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Runtime
// ════════════════════════════════════════════════════════════════════════════

// Runtime 流组件的运行时
//
// 持有 main / background 执行上下文、根作用域与流指标，
// 并按配置为事件流、回调适配器与共享状态提供默认选项。
//
// 生命周期：New → Start → Stop。Stop 之后不能再次启动。
type Runtime struct {
	config *config.Config
	app    *fx.App

	mu      sync.Mutex
	started bool
	closed  bool

	// 由 Fx 注入
	main       pkgif.Dispatcher
	background pkgif.Dispatcher
	scope      *lifecycle.Scope
	reporter   metrics.Reporter
	eventBus   *eventbus.Settings
	observer   *observer.Settings
	sharing    *sharing.Settings
}

// New 创建运行时（未启动）
func New(opts ...Option) (*Runtime, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg := o.toInternalConfig()
	log.Apply(cfg.Log.ToLogConfig())

	rt := &Runtime{config: cfg}
	app, err := buildFxApp(cfg, o, rt)
	if err != nil {
		return nil, err
	}
	rt.app = app

	logger.Debug("运行时已创建",
		"deliverOn", cfg.EventBus.DeliverOn,
		"registerOn", cfg.Observer.RegisterOn,
		"metrics", cfg.Metrics.Enabled)
	return rt, nil
}

// Start 创建并启动运行时
func Start(ctx context.Context, opts ...Option) (*Runtime, error) {
	rt, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := rt.Start(ctx); err != nil {
		return nil, err
	}
	return rt, nil
}

// Start 启动执行上下文与指标
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := r.app.Start(startCtx); err != nil {
		logger.Error("运行时启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	r.started = true
	logger.Info("运行时已启动", "version", Version)
	return nil
}

// Stop 停止运行时
//
// 先取消根作用域并等待共享任务结束，再排空并停止执行上下文。
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}
	if !r.started {
		return ErrNotStarted
	}

	r.closed = true
	r.started = false

	if err := r.app.Stop(ctx); err != nil {
		logger.Error("运行时停止失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	logger.Info("运行时已停止")
	return nil
}

// Close 停止运行时，未启动或已停止时直接返回
//
// 可并发调用多次，只有一次真正停止 fx 应用，其余调用返回 nil。
func (r *Runtime) Close() error {
	r.mu.Lock()
	if !r.started {
		r.closed = true
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := r.Stop(ctx); err != nil && !errors.Is(err, ErrRuntimeClosed) {
		return err
	}
	return nil
}

// IsRunning 运行时是否已启动且未停止
func (r *Runtime) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.closed
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Config 返回运行时配置的副本
func (r *Runtime) Config() *config.Config { return r.config.Clone() }

// Main 返回 main 执行上下文（单 goroutine FIFO）
func (r *Runtime) Main() pkgif.Dispatcher { return r.main }

// Background 返回 background 执行上下文（有界并发）
func (r *Runtime) Background() pkgif.Dispatcher { return r.background }

// Scope 返回根作用域，停止运行时会取消其中所有任务
func (r *Runtime) Scope() *lifecycle.Scope { return r.scope }

// Reporter 返回流指标
func (r *Runtime) Reporter() metrics.Reporter { return r.reporter }

// Stats 返回按名称的流指标快照
func (r *Runtime) Stats() map[string]metrics.Stats { return r.reporter.ByName() }
