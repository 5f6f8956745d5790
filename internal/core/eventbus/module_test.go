package eventbus

import (
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/metrics"
)

// TestModule_ProvidesSettings 测试 Fx 模块按配置提供默认选项
func TestModule_ProvidesSettings(t *testing.T) {
	cfg := config.NewConfig()
	cfg.EventBus.BufferSize = 4
	cfg.EventBus.DeliverOn = config.DispatcherMain

	var (
		settings *Settings
		reporter metrics.Reporter
	)
	app := fxtest.New(t,
		fx.Supply(cfg),
		dispatch.Module(),
		metrics.Module,
		Module(),
		fx.Populate(&settings, &reporter),
	)
	app.RequireStart()
	defer app.RequireStop()

	if settings == nil {
		t.Fatal("Settings not provided")
	}
	if got := settings.Dispatcher().Name(); got != config.DispatcherMain {
		t.Errorf("Dispatcher() = %q, want main", got)
	}

	bus := NewWith[int](settings, WithName("module"))
	sub, err := bus.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer sub.Close()
	if cap(sub.Out()) != 4 {
		t.Errorf("buffer = %d, want 4", cap(sub.Out()))
	}

	bus.Emit(1)
	if got := receive(t, sub); got != 1 {
		t.Errorf("received %d, want 1", got)
	}

	deadline := time.Now().Add(time.Second)
	for reporter.StatsFor("module").Delivered != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("stats = %+v", reporter.StatsFor("module"))
		}
		time.Sleep(time.Millisecond)
	}
}

// TestSettings_NilSafe 空 Settings 返回默认选项
func TestSettings_NilSafe(t *testing.T) {
	var s *Settings
	if opts := s.Options(); opts != nil {
		t.Errorf("Options() = %v, want nil", opts)
	}

	bus := NewWith[string](s)
	sub, _ := bus.Subscribe()
	defer sub.Close()
	if cap(sub.Out()) != DefaultBufSize {
		t.Errorf("buffer = %d, want %d", cap(sub.Out()), DefaultBufSize)
	}
}

// TestSubscribe_SubBufSize 单个订阅覆盖缓冲区大小
func TestSubscribe_SubBufSize(t *testing.T) {
	bus := New[int](BufSize(8))

	sub, _ := bus.Subscribe(SubBufSize(1))
	defer sub.Close()
	if cap(sub.Out()) != 1 {
		t.Errorf("buffer = %d, want 1", cap(sub.Out()))
	}
	if sub.ID() == "" {
		t.Error("empty subscription ID")
	}
}
