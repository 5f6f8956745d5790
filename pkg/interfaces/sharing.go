// Package interfaces 定义 go-reactive 公共接口
//
// 本文件定义共享状态的启动策略接口。
package interfaces

import "fmt"

// SharingCommand 共享策略发出的命令
type SharingCommand int

const (
	// SharingStart 开始收集上游
	SharingStart SharingCommand = iota

	// SharingStop 停止收集上游
	SharingStop

	// SharingStopAndResetReplayCache 停止收集上游并允许重置缓存值
	SharingStopAndResetReplayCache
)

// String 返回命令字符串表示
func (c SharingCommand) String() string {
	switch c {
	case SharingStart:
		return "start"
	case SharingStop:
		return "stop"
	case SharingStopAndResetReplayCache:
		return "stop_and_reset_replay_cache"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// SharingStarted 共享启动策略
//
// Command 接收实时订阅者数量，输出 START / STOP / STOP_AND_RESET 命令流。
type SharingStarted interface {
	Command(subscriptionCount StateFlow[int]) Flow[SharingCommand]
}
