// Package timing 提供流的耗时测量操作符
package timing

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-reactive/internal/core/flow"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/timing")

type options struct {
	clock    clock.Clock
	reporter metrics.Reporter
}

// Option 测量选项
type Option func(*options)

// WithClock 设置时钟，测试中使用 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithReporter 把测量结果同时上报给 Reporter
func WithReporter(r metrics.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// MeasureTimeTillFirstEvent 测量从开始收集到第一个值的耗时
//
// 每次收集独立计时。第一个值到达时以 info 级别记录 tag 与耗时并上报，
// 所有值原样向下游传递。流在产生值之前结束时不记录。
func MeasureTimeTillFirstEvent[T any](upstream pkgif.Flow[T], tag string, opts ...Option) pkgif.Flow[T] {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	o.reporter = metrics.OrNop(o.reporter)

	return flow.New(func(ctx context.Context, emit pkgif.Collector[T]) error {
		start := o.clock.Now()
		first := true
		return upstream.Collect(ctx, func(v T) error {
			if first {
				first = false
				record(o, tag, o.clock.Since(start))
			}
			return emit(v)
		})
	})
}

func record(o options, tag string, elapsed time.Duration) {
	logger.Info("首个事件耗时", "tag", tag, "elapsed", elapsed)
	o.reporter.LogFirstEvent(tag, elapsed)
}
