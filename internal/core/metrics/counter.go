package metrics

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxTracked 默认按名称跟踪的最大流数量
const DefaultMaxTracked = 1024

// FlowCounter 流计数器
//
// 全局计数使用原子操作；按名称的统计存放在 LRU 中，
// 超出容量时淘汰最久未使用的流，避免短生命周期流无限增长。
type FlowCounter struct {
	clock clock.Clock

	// 全局计数器
	emitted     atomic.Int64
	delivered   atomic.Int64
	dropped     atomic.Int64
	firstEvents atomic.Int64
	lastFirst   atomic.Int64
	emitRate    *RateMeter

	// 按名称统计
	byName *lru.Cache[string, *flowStats]
}

type flowStats struct {
	emitted     atomic.Int64
	delivered   atomic.Int64
	dropped     atomic.Int64
	subscribers atomic.Int64
	firstEvents atomic.Int64
	lastFirst   atomic.Int64
	emitRate    *RateMeter
}

func (s *flowStats) snapshot() Stats {
	return Stats{
		Emitted:        s.emitted.Load(),
		Delivered:      s.delivered.Load(),
		Dropped:        s.dropped.Load(),
		Subscribers:    int(s.subscribers.Load()),
		EmitRate:       s.emitRate.Rate(),
		FirstEvents:    s.firstEvents.Load(),
		LastFirstEvent: time.Duration(s.lastFirst.Load()),
	}
}

// CounterOption FlowCounter 选项
type CounterOption func(*counterOptions)

type counterOptions struct {
	clock      clock.Clock
	maxTracked int
}

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(clk clock.Clock) CounterOption {
	return func(o *counterOptions) {
		o.clock = clk
	}
}

// WithMaxTracked 设置按名称跟踪的最大流数量
func WithMaxTracked(n int) CounterOption {
	return func(o *counterOptions) {
		o.maxTracked = n
	}
}

// NewFlowCounter 创建流计数器
func NewFlowCounter(opts ...CounterOption) *FlowCounter {
	o := counterOptions{
		clock:      clock.New(),
		maxTracked: DefaultMaxTracked,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTracked <= 0 {
		o.maxTracked = DefaultMaxTracked
	}

	// 仅在 size <= 0 时返回错误
	cache, _ := lru.New[string, *flowStats](o.maxTracked)

	return &FlowCounter{
		clock:    o.clock,
		emitRate: NewRateMeter(o.clock),
		byName:   cache,
	}
}

func (c *FlowCounter) statsFor(name string) *flowStats {
	if s, ok := c.byName.Get(name); ok {
		return s
	}
	s := &flowStats{emitRate: NewRateMeter(c.clock)}
	if prev, ok, _ := c.byName.PeekOrAdd(name, s); ok {
		return prev
	}
	return s
}

// LogEmit 记录一次发射
func (c *FlowCounter) LogEmit(name string) {
	c.emitted.Add(1)
	c.emitRate.Add(1)

	s := c.statsFor(name)
	s.emitted.Add(1)
	s.emitRate.Add(1)
}

// LogDelivered 记录成功投递的订阅者数量
func (c *FlowCounter) LogDelivered(name string, n int) {
	if n <= 0 {
		return
	}
	c.delivered.Add(int64(n))
	c.statsFor(name).delivered.Add(int64(n))
}

// LogDrop 记录被丢弃的投递数量
func (c *FlowCounter) LogDrop(name string, n int) {
	if n <= 0 {
		return
	}
	c.dropped.Add(int64(n))
	c.statsFor(name).dropped.Add(int64(n))
}

// LogSubscribers 记录当前订阅者数量
func (c *FlowCounter) LogSubscribers(name string, count int) {
	c.statsFor(name).subscribers.Store(int64(count))
}

// LogFirstEvent 记录从开始收集到首个事件的耗时
func (c *FlowCounter) LogFirstEvent(tag string, elapsed time.Duration) {
	c.firstEvents.Add(1)
	c.lastFirst.Store(int64(elapsed))

	s := c.statsFor(tag)
	s.firstEvents.Add(1)
	s.lastFirst.Store(int64(elapsed))
}

// StatsFor 获取指定流的统计，未跟踪的流返回零值
func (c *FlowCounter) StatsFor(name string) Stats {
	s, ok := c.byName.Peek(name)
	if !ok {
		return Stats{}
	}
	return s.snapshot()
}

// Totals 获取总统计
//
// Subscribers 为所有被跟踪流的订阅者之和。
func (c *FlowCounter) Totals() Stats {
	var subscribers int64
	for _, s := range c.byName.Values() {
		subscribers += s.subscribers.Load()
	}

	return Stats{
		Emitted:        c.emitted.Load(),
		Delivered:      c.delivered.Load(),
		Dropped:        c.dropped.Load(),
		Subscribers:    int(subscribers),
		EmitRate:       c.emitRate.Rate(),
		FirstEvents:    c.firstEvents.Load(),
		LastFirstEvent: time.Duration(c.lastFirst.Load()),
	}
}

// ByName 获取所有被跟踪流的统计
func (c *FlowCounter) ByName() map[string]Stats {
	keys := c.byName.Keys()
	result := make(map[string]Stats, len(keys))
	for _, k := range keys {
		if s, ok := c.byName.Peek(k); ok {
			result[k] = s.snapshot()
		}
	}
	return result
}

// Tracked 返回当前跟踪的流数量
func (c *FlowCounter) Tracked() int {
	return c.byName.Len()
}

// Reset 重置所有统计
func (c *FlowCounter) Reset() {
	c.emitted.Store(0)
	c.delivered.Store(0)
	c.dropped.Store(0)
	c.firstEvents.Store(0)
	c.lastFirst.Store(0)
	c.emitRate.Reset()
	c.byName.Purge()
}
