package sharing

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-reactive/config"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// Settings 由配置决定的 WhileSubscribed 默认参数
type Settings struct {
	cfg config.SharingConfig
}

// NewSettings 创建默认参数
func NewSettings(cfg config.SharingConfig) *Settings {
	return &Settings{cfg: cfg}
}

// WhileSubscribed 返回使用配置默认值的 WhileSubscribed，opts 覆盖默认值
func (s *Settings) WhileSubscribed(opts ...WhileSubscribedOption) pkgif.SharingStarted {
	cfg := config.DefaultSharingConfig()
	if s != nil {
		cfg = s.cfg
	}
	defaults := []WhileSubscribedOption{
		StopTimeout(cfg.StopTimeout.Duration()),
		ReplayExpiration(cfg.ReplayExpiration.Duration()),
	}
	return WhileSubscribed(append(defaults, opts...)...)
}

// Params 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("sharing",
		fx.Provide(ProvideSettings),
	)
}

// ProvideSettings 提供共享默认参数
func ProvideSettings(p Params) *Settings {
	cfg := config.DefaultSharingConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Sharing
	}
	return NewSettings(cfg)
}
