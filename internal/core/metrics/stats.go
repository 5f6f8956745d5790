package metrics

import "time"

// Stats 流指标快照
//
// Emitted 记录发射次数，Delivered 记录成功投递到订阅者的次数，
// Dropped 记录因缓冲区满或订阅者离开而丢弃的次数。
type Stats struct {
	Emitted     int64   // 总发射次数
	Delivered   int64   // 总投递次数
	Dropped     int64   // 总丢弃次数
	Subscribers int     // 当前订阅者数
	EmitRate    float64 // 发射速率（次/秒，最近 60 秒）

	FirstEvents    int64         // 首个事件测量次数
	LastFirstEvent time.Duration // 最近一次首个事件耗时
}
