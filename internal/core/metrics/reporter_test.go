package metrics

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Reporter 接口测试
// ============================================================================

// TestReporter_Stats 测试 Reporter 统计功能
func TestReporter_Stats(t *testing.T) {
	var reporter Reporter = NewFlowCounter()

	reporter.LogEmit("clicks")
	reporter.LogEmit("clicks")
	reporter.LogDelivered("clicks", 3)
	reporter.LogDrop("clicks", 1)
	reporter.LogSubscribers("clicks", 2)

	stats := reporter.StatsFor("clicks")
	assert.Equal(t, int64(2), stats.Emitted)
	assert.Equal(t, int64(3), stats.Delivered)
	assert.Equal(t, int64(1), stats.Dropped)
	assert.Equal(t, 2, stats.Subscribers)

	totals := reporter.Totals()
	assert.Equal(t, int64(2), totals.Emitted)
	assert.Equal(t, 2, totals.Subscribers)
}

// TestReporter_ByName 测试按名称统计
func TestReporter_ByName(t *testing.T) {
	var reporter Reporter = NewFlowCounter()

	reporter.LogEmit("a")
	reporter.LogEmit("b")
	reporter.LogEmit("b")

	byName := reporter.ByName()
	require.Len(t, byName, 2)
	assert.Equal(t, int64(1), byName["a"].Emitted)
	assert.Equal(t, int64(2), byName["b"].Emitted)
}

// TestReporter_UnknownFlow 测试未跟踪的流
func TestReporter_UnknownFlow(t *testing.T) {
	reporter := NewFlowCounter()
	assert.Equal(t, Stats{}, reporter.StatsFor("missing"))
	assert.Equal(t, 0, reporter.Tracked())
}

// TestReporter_IgnoresNonPositive 测试忽略非正数
func TestReporter_IgnoresNonPositive(t *testing.T) {
	reporter := NewFlowCounter()
	reporter.LogDelivered("a", 0)
	reporter.LogDrop("a", -1)

	assert.Equal(t, int64(0), reporter.Totals().Delivered)
	assert.Equal(t, int64(0), reporter.Totals().Dropped)
}

// TestReporter_FirstEvent 测试首个事件耗时
func TestReporter_FirstEvent(t *testing.T) {
	reporter := NewFlowCounter()
	reporter.LogFirstEvent("load", 150*time.Millisecond)
	reporter.LogFirstEvent("load", 40*time.Millisecond)

	stats := reporter.StatsFor("load")
	assert.Equal(t, int64(2), stats.FirstEvents)
	assert.Equal(t, 40*time.Millisecond, stats.LastFirstEvent)
	assert.Equal(t, 40*time.Millisecond, reporter.Totals().LastFirstEvent)
}

// TestReporter_Reset 测试重置
func TestReporter_Reset(t *testing.T) {
	reporter := NewFlowCounter()
	reporter.LogEmit("a")
	reporter.LogDrop("a", 2)

	reporter.Reset()

	assert.Equal(t, Stats{}, reporter.Totals())
	assert.Empty(t, reporter.ByName())
}

// TestReporter_EvictsLeastRecentlyUsed 测试 LRU 淘汰
func TestReporter_EvictsLeastRecentlyUsed(t *testing.T) {
	reporter := NewFlowCounter(WithMaxTracked(2))

	reporter.LogEmit("a")
	reporter.LogEmit("b")
	reporter.LogEmit("a") // a 最近使用
	reporter.LogEmit("c") // 淘汰 b

	byName := reporter.ByName()
	assert.Len(t, byName, 2)
	assert.Contains(t, byName, "a")
	assert.Contains(t, byName, "c")
	assert.NotContains(t, byName, "b")

	// 全局计数不受淘汰影响
	assert.Equal(t, int64(4), reporter.Totals().Emitted)
}

// TestNop 测试空实现
func TestNop(t *testing.T) {
	r := OrNop(nil)
	r.LogEmit("a")
	r.LogFirstEvent("a", time.Second)
	assert.Equal(t, Stats{}, r.Totals())
	assert.Empty(t, r.ByName())

	counter := NewFlowCounter()
	assert.Same(t, counter, OrNop(counter))
}

// ============================================================================
// RateMeter 测试
// ============================================================================

// TestRateMeter_Window 测试滑动窗口
func TestRateMeter_Window(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)

	r.Add(60)
	assert.Equal(t, int64(60), r.Total())
	assert.InDelta(t, 1.0, r.Rate(), 0.001)

	mock.Add(30 * time.Second)
	r.Add(60)
	assert.Equal(t, int64(120), r.Total())

	// 第一个桶滑出窗口
	mock.Add(31 * time.Second)
	assert.Equal(t, int64(60), r.Total())

	// 超过 60 秒没有数据
	mock.Add(2 * time.Minute)
	assert.Equal(t, int64(0), r.Total())
}

// TestRateMeter_Reset 测试重置
func TestRateMeter_Reset(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)
	r.Add(10)

	mock.Add(5 * time.Second)
	r.Reset()

	assert.Equal(t, int64(0), r.Total())
	assert.Equal(t, mock.Now(), r.LastUpdate())
}
