package metrics

import "time"

// Reporter 提供记录和检索流指标的方法
//
// name 是流的名称（事件总线、回调适配器或计时标签）。
type Reporter interface {
	// LogEmit 记录一次发射
	LogEmit(name string)

	// LogDelivered 记录成功投递的订阅者数量
	LogDelivered(name string, n int)

	// LogDrop 记录被丢弃的投递数量
	LogDrop(name string, n int)

	// LogSubscribers 记录当前订阅者数量
	LogSubscribers(name string, count int)

	// LogFirstEvent 记录从开始收集到首个事件的耗时
	LogFirstEvent(tag string, elapsed time.Duration)

	// StatsFor 获取指定流的统计
	StatsFor(name string) Stats

	// Totals 获取总统计
	Totals() Stats

	// ByName 获取所有被跟踪流的统计
	ByName() map[string]Stats

	// Reset 重置所有统计
	Reset()
}

// 确保 FlowCounter 实现 Reporter 接口
var _ Reporter = (*FlowCounter)(nil)

// ============================================================================
// Nop
// ============================================================================

type nopReporter struct{}

// Nop 返回丢弃所有记录的 Reporter
func Nop() Reporter { return nopReporter{} }

// OrNop r 为 nil 时返回 Nop
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop()
	}
	return r
}

func (nopReporter) LogEmit(string) {}
func (nopReporter) LogDelivered(string, int) {}
func (nopReporter) LogDrop(string, int) {}
func (nopReporter) LogSubscribers(string, int) {}
func (nopReporter) LogFirstEvent(string, time.Duration) {}
func (nopReporter) StatsFor(string) Stats { return Stats{} }
func (nopReporter) Totals() Stats { return Stats{} }
func (nopReporter) ByName() map[string]Stats { return map[string]Stats{} }
func (nopReporter) Reset() {}
