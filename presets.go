package reactive

import (
	"time"

	"github.com/dep2p/go-reactive/config"
)

// ════════════════════════════════════════════════════════════════════════════
//                              预设配置
// ════════════════════════════════════════════════════════════════════════════

// 预设名称常量
const (
	// PresetNameDefault 默认预设名称
	PresetNameDefault = "default"

	// PresetNameMinimal 最小预设名称
	PresetNameMinimal = "minimal"

	// PresetNameTest 测试预设名称
	PresetNameTest = "test"
)

// Preset 预设配置
type Preset struct {
	// Name 预设名称
	Name string

	// Description 预设描述
	Description string

	apply func(cfg *config.Config)
}

// Apply 把预设应用到配置
func (p *Preset) Apply(cfg *config.Config) {
	if p == nil || p.apply == nil || cfg == nil {
		return
	}
	p.apply(cfg)
}

var (
	// PresetDefault 默认预设：事件在发射方 goroutine 内投递，回调在 main 上注册
	PresetDefault = &Preset{
		Name:        PresetNameDefault,
		Description: "默认配置",
		apply:       func(*config.Config) {},
	}

	// PresetMinimal 最小预设
	//
	// 特点：
	//   - 事件在发射方 goroutine 内投递
	//   - 关闭流指标
	//   - 较小的队列与缓冲
	PresetMinimal = &Preset{
		Name:        PresetNameMinimal,
		Description: "低资源占用，关闭指标",
		apply: func(cfg *config.Config) {
			cfg.EventBus.DeliverOn = config.DispatcherImmediate
			cfg.EventBus.BufferSize = 8
			cfg.Observer.BufferSize = 16
			cfg.Dispatch.MainQueueSize = 128
			cfg.Dispatch.BackgroundWorkers = 2
			cfg.Metrics.Enabled = false
		},
	}

	// PresetTest 测试预设
	//
	// 特点：
	//   - WhileSubscribed 立即停止
	//   - 较短的停止超时
	//   - 丢弃告警不限速
	PresetTest = &Preset{
		Name:        PresetNameTest,
		Description: "测试环境，缩短所有超时",
		apply: func(cfg *config.Config) {
			cfg.Sharing.StopTimeout = 0
			cfg.Dispatch.StopTimeout = config.Duration(time.Second)
			cfg.EventBus.DropLogInterval = 0
			cfg.Log.Level = "warn"
		},
	}
)

// GetPreset 按名称获取预设，未知名称返回 nil
func GetPreset(name string) *Preset {
	switch name {
	case PresetNameDefault:
		return PresetDefault
	case PresetNameMinimal:
		return PresetMinimal
	case PresetNameTest:
		return PresetTest
	default:
		return nil
	}
}
