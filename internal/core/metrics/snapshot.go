package metrics

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/metrics")

// Snapshot 流指标快照
//
// 周期性收集并输出流状态快照，便于日志分析。
type Snapshot struct {
	// 时间信息
	Timestamp     time.Time     `json:"timestamp"`
	UptimeSeconds int64         `json:"uptimeSeconds"`
	Interval      time.Duration `json:"interval"`

	// 流统计
	TrackedFlows int   `json:"trackedFlows"`
	Subscribers  int   `json:"subscribers"`
	Emitted      int64 `json:"emitted"`
	Delivered    int64 `json:"delivered"`
	Dropped      int64 `json:"dropped"`

	// 区间速率
	EmitsPerMin float64 `json:"emitsPerMin"`
	DropsPerMin float64 `json:"dropsPerMin"`

	// 资源统计
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heapAllocMB"`
}

// SnapshotCollector 快照收集器
type SnapshotCollector struct {
	mu sync.RWMutex

	clock     clock.Clock
	startTime time.Time
	reporter  Reporter

	// 上次快照时的值（用于计算区间速率）
	lastSnapshot     *Snapshot
	lastEmitted      int64
	lastDropped      int64
	lastSnapshotTime time.Time

	// 控制
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSnapshotCollector 创建快照收集器，clk 为 nil 时使用真实时钟
func NewSnapshotCollector(reporter Reporter, clk clock.Clock) *SnapshotCollector {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &SnapshotCollector{
		clock:            clk,
		startTime:        now,
		reporter:         OrNop(reporter),
		lastSnapshotTime: now,
	}
}

// Start 启动周期性快照
func (c *SnapshotCollector) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return // 已经启动
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.lastSnapshotTime = c.clock.Now()
	ticker := c.clock.Ticker(interval)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.snapshotLoop(ctx, ticker)

	logger.Info("流指标快照收集器已启动", "interval", interval)
}

// Stop 停止快照收集
func (c *SnapshotCollector) Stop() {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.cancel = nil
	c.mu.Unlock()

	c.wg.Wait()
	logger.Info("流指标快照收集器已停止")
}

// snapshotLoop 快照循环
func (c *SnapshotCollector) snapshotLoop(ctx context.Context, ticker *clock.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.logSnapshot(c.Collect())
		}
	}
}

// Collect 收集当前快照
func (c *SnapshotCollector) Collect() *Snapshot {
	now := c.clock.Now()

	c.mu.RLock()
	lastTime := c.lastSnapshotTime
	lastEmitted := c.lastEmitted
	lastDropped := c.lastDropped
	c.mu.RUnlock()

	elapsed := now.Sub(lastTime)
	elapsedMinutes := elapsed.Minutes()
	if elapsedMinutes <= 0 {
		elapsedMinutes = 1.0 / 60.0 // 最小 1 秒
	}

	totals := c.reporter.Totals()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := &Snapshot{
		Timestamp:     now,
		UptimeSeconds: int64(now.Sub(c.startTime).Seconds()),
		Interval:      elapsed,

		TrackedFlows: len(c.reporter.ByName()),
		Subscribers:  totals.Subscribers,
		Emitted:      totals.Emitted,
		Delivered:    totals.Delivered,
		Dropped:      totals.Dropped,

		EmitsPerMin: float64(totals.Emitted-lastEmitted) / elapsedMinutes,
		DropsPerMin: float64(totals.Dropped-lastDropped) / elapsedMinutes,

		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(memStats.HeapAlloc) / 1024 / 1024,
	}

	c.mu.Lock()
	c.lastSnapshot = snapshot
	c.lastSnapshotTime = now
	c.lastEmitted = totals.Emitted
	c.lastDropped = totals.Dropped
	c.mu.Unlock()

	return snapshot
}

// logSnapshot 输出快照日志
func (c *SnapshotCollector) logSnapshot(s *Snapshot) {
	logger.Info("流指标快照",
		"uptime", s.UptimeSeconds,
		"flows", s.TrackedFlows,
		"subscribers", s.Subscribers,
		"emitted", s.Emitted,
		"delivered", s.Delivered,
		"dropped", s.Dropped,
		"emitsPerMin", formatFloat(s.EmitsPerMin),
		"dropsPerMin", formatFloat(s.DropsPerMin),
		"goroutines", s.Goroutines,
		"heapAllocMB", formatFloat(s.HeapAllocMB),
	)
}

// LastSnapshot 获取最新快照
func (c *SnapshotCollector) LastSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSnapshot
}

// formatFloat 格式化浮点数（保留 2 位小数）
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
