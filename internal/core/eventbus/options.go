package eventbus

import (
	"time"

	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
// 事件流选项
// ============================================================================

// DefaultBufSize 默认订阅缓冲区大小
const DefaultBufSize = 16

// DefaultDropLogInterval 默认丢弃日志的最小间隔
const DefaultDropLogInterval = time.Second

type options struct {
	name            string
	bufSize         int
	dispatcher      pkgif.Dispatcher
	onActive        func()
	onInactive      func()
	reporter        metrics.Reporter
	dropLogInterval time.Duration
}

func defaultOptions() options {
	return options{
		name:            "eventflow",
		bufSize:         DefaultBufSize,
		dropLogInterval: DefaultDropLogInterval,
	}
}

// Option 事件流选项
type Option func(*options)

// BufSize 设置订阅缓冲区大小
func BufSize(size int) Option {
	return func(o *options) {
		o.bufSize = size
	}
}

// WithDispatcher 设置投递使用的执行上下文，默认 Immediate
func WithDispatcher(d pkgif.Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}

// OnActive 设置订阅者数量 0→1 时的钩子
func OnActive(fn func()) Option {
	return func(o *options) {
		o.onActive = fn
	}
}

// OnInactive 设置订阅者数量 1→0 时的钩子
func OnInactive(fn func()) Option {
	return func(o *options) {
		o.onInactive = fn
	}
}

// WithName 设置名称，用于日志和指标
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithReporter 设置指标 Reporter
func WithReporter(r metrics.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithDropLogInterval 设置丢弃日志的最小间隔，0 表示每次丢弃都记录
func WithDropLogInterval(d time.Duration) Option {
	return func(o *options) {
		o.dropLogInterval = d
	}
}

// ============================================================================
// 订阅选项
// ============================================================================

type subscribeSettings struct {
	buffer int
}

// SubscribeOption 订阅选项
type SubscribeOption func(*subscribeSettings)

// SubBufSize 覆盖单个订阅的缓冲区大小
func SubBufSize(size int) SubscribeOption {
	return func(s *subscribeSettings) {
		s.buffer = size
	}
}
