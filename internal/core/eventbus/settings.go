package eventbus

import (
	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// Settings 由配置决定的事件流默认选项
//
// New 是泛型函数，无法直接注入；模块提供 Settings，调用方以
// New[T](settings.Options()...) 的方式创建事件流。
type Settings struct {
	cfg        config.EventBusConfig
	dispatcher pkgif.Dispatcher
	reporter   metrics.Reporter
}

// NewSettings 创建默认选项
func NewSettings(cfg config.EventBusConfig, dispatcher pkgif.Dispatcher, reporter metrics.Reporter) *Settings {
	return &Settings{
		cfg:        cfg,
		dispatcher: dispatch.OrImmediate(dispatcher),
		reporter:   metrics.OrNop(reporter),
	}
}

// Options 返回默认选项，调用方追加的选项会覆盖它们
func (s *Settings) Options() []Option {
	if s == nil {
		return nil
	}
	return []Option{
		BufSize(s.cfg.BufferSize),
		WithDropLogInterval(s.cfg.DropLogInterval.Duration()),
		WithDispatcher(s.dispatcher),
		WithReporter(s.reporter),
	}
}

// Dispatcher 返回投递使用的执行上下文
func (s *Settings) Dispatcher() pkgif.Dispatcher {
	return s.dispatcher
}

// NewWith 使用 settings 的默认选项创建事件流
func NewWith[T any](s *Settings, opts ...Option) *EventFlow[T] {
	return New[T](append(s.Options(), opts...)...)
}
