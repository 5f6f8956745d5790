package observer

import (
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// DefaultBufSize 默认回调缓冲区大小
const DefaultBufSize = 64

type options struct {
	name       string
	bufSize    int
	dispatcher pkgif.Dispatcher
	reporter   metrics.Reporter
}

func defaultOptions() options {
	return options{
		name:    "observer",
		bufSize: DefaultBufSize,
	}
}

// Option 适配器选项
type Option func(*options)

// WithDispatcher 设置执行 register / unregister 的执行上下文，默认 Immediate
func WithDispatcher(d pkgif.Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}

// BufSize 设置回调到收集者之间的缓冲区大小
func BufSize(size int) Option {
	return func(o *options) {
		if size < 0 {
			size = 0
		}
		o.bufSize = size
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
