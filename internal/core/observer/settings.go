package observer

import (
	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// Settings 由配置决定的适配器默认选项
type Settings struct {
	cfg        config.ObserverConfig
	dispatcher pkgif.Dispatcher
	reporter   metrics.Reporter
}

// NewSettings 创建默认选项
func NewSettings(cfg config.ObserverConfig, dispatcher pkgif.Dispatcher, reporter metrics.Reporter) *Settings {
	return &Settings{
		cfg:        cfg,
		dispatcher: dispatch.OrImmediate(dispatcher),
		reporter:   metrics.OrNop(reporter),
	}
}

// Options 返回默认选项
func (s *Settings) Options() []Option {
	if s == nil {
		return nil
	}
	return []Option{
		BufSize(s.cfg.BufferSize),
		WithDispatcher(s.dispatcher),
		WithReporter(s.reporter),
	}
}

// Dispatcher 返回注册使用的执行上下文
func (s *Settings) Dispatcher() pkgif.Dispatcher {
	return s.dispatcher
}

// NewFlowWith 使用 settings 的默认选项创建适配器
func NewFlowWith[T any](s *Settings, registrar pkgif.Registrar[T], opts ...Option) *Flow[T] {
	return NewFlow[T](registrar, append(s.Options(), opts...)...)
}
