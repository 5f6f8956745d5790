package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace Prometheus 指标命名空间
const Namespace = "reactive"

// flowLabels 按流名称区分的标签
var flowLabels = []string{"flow"}

func newDesc(metricName, help string, labels []string) *prometheus.Desc {
	return prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "flow", metricName),
		help,
		labels,
		nil)
}

// Collector 把 Reporter 的统计导出为 Prometheus 指标
//
// 每次抓取时读取 Reporter.ByName()，不额外持有状态。
type Collector struct {
	reporter Reporter

	emitted     *prometheus.Desc
	delivered   *prometheus.Desc
	dropped     *prometheus.Desc
	subscribers *prometheus.Desc
	emitRate    *prometheus.Desc
	firstEvent  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建 Prometheus 收集器
func NewCollector(reporter Reporter) *Collector {
	return &Collector{
		reporter:    OrNop(reporter),
		emitted:     newDesc("emitted_total", "Number of values emitted into the flow.", flowLabels),
		delivered:   newDesc("delivered_total", "Number of values delivered to subscribers.", flowLabels),
		dropped:     newDesc("dropped_total", "Number of deliveries dropped because a subscriber buffer was full or closed.", flowLabels),
		subscribers: newDesc("subscribers", "Current number of subscribers.", flowLabels),
		emitRate:    newDesc("emit_rate", "Emits per second averaged over the last 60 seconds.", flowLabels),
		firstEvent:  newDesc("first_event_seconds", "Time from collection start to the first value, last observation.", flowLabels),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.emitted
	ch <- c.delivered
	ch <- c.dropped
	ch <- c.subscribers
	ch <- c.emitRate
	ch <- c.firstEvent
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, s := range c.reporter.ByName() {
		ch <- prometheus.MustNewConstMetric(c.emitted, prometheus.CounterValue, float64(s.Emitted), name)
		ch <- prometheus.MustNewConstMetric(c.delivered, prometheus.CounterValue, float64(s.Delivered), name)
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped), name)
		ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(s.Subscribers), name)
		ch <- prometheus.MustNewConstMetric(c.emitRate, prometheus.GaugeValue, s.EmitRate, name)
		if s.FirstEvents > 0 {
			ch <- prometheus.MustNewConstMetric(c.firstEvent, prometheus.GaugeValue, s.LastFirstEvent.Seconds(), name)
		}
	}
}
