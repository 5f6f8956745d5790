package sharing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-reactive/config"
	"github.com/dep2p/go-reactive/internal/core/dispatch"
	"github.com/dep2p/go-reactive/internal/core/flow"
	"github.com/dep2p/go-reactive/internal/core/lifecycle"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
// 测试辅助
// ============================================================================

// trackedUpstream 记录并发收集数量的上游
type trackedUpstream struct {
	active atomic.Int32
	max    atomic.Int32
	starts atomic.Int32
	values chan int
}

func newTrackedUpstream() *trackedUpstream {
	return &trackedUpstream{values: make(chan int, 16)}
}

func (u *trackedUpstream) flow() pkgif.Flow[int] {
	return flow.New(func(ctx context.Context, emit pkgif.Collector[int]) error {
		n := u.active.Add(1)
		defer u.active.Add(-1)
		for {
			m := u.max.Load()
			if n <= m || u.max.CompareAndSwap(m, n) {
				break
			}
		}
		u.starts.Add(1)

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v := <-u.values:
				if err := emit(v); err != nil {
					return err
				}
			}
		}
	})
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond, msg)
}

// readers 启动 n 个读者，返回取消函数
func readers[T any](s *State[T], n int) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Collect(ctx, func(T) error { return nil })
		}()
	}
	return func() {
		cancel()
		wg.Wait()
	}
}

func newScope(t *testing.T) *lifecycle.Scope {
	t.Helper()
	scope := lifecycle.NewScope(context.Background(), lifecycle.WithName(t.Name()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = scope.Close(ctx)
	})
	return scope
}

// ============================================================================
// 单上游收集
// ============================================================================

func TestStateIn_SingleUpstreamCollection(t *testing.T) {
	policies := map[string]struct {
		started pkgif.SharingStarted
		stops   bool
	}{
		"eagerly":         {Eagerly, false},
		"lazily":          {Lazily, false},
		"whileSubscribed": {WhileSubscribed(), true},
	}

	for name, p := range policies {
		p := p
		t.Run(name, func(t *testing.T) {
			up := newTrackedUpstream()
			s := StateIn(newScope(t), up.flow(), p.started, 0)

			for round := 0; round < 3; round++ {
				stop := readers(s, 10)
				eventually(t, func() bool { return up.active.Load() == 1 }, "upstream not started")

				up.values <- round + 1
				eventually(t, func() bool { return s.Value() == round+1 }, "value not shared")
				stop()
				if p.stops {
					eventually(t, func() bool { return up.active.Load() == 0 }, "upstream not stopped")
				}
			}

			assert.Equal(t, int32(1), up.max.Load())
		})
	}
}

func TestStateIn_InitialValue(t *testing.T) {
	s := StateIn(newScope(t), flow.Never[string](), Lazily, "initial")

	assert.Equal(t, "initial", s.Value())
	v, ok := s.Load()
	assert.True(t, ok)
	assert.Equal(t, "initial", v)
	assert.True(t, s.Job().IsActive())
}

// ============================================================================
// 策略
// ============================================================================

func TestStateIn_EagerlyStartsWithoutReaders(t *testing.T) {
	up := newTrackedUpstream()
	s := StateIn(newScope(t), up.flow(), Eagerly, 0)

	eventually(t, func() bool { return up.active.Load() == 1 }, "eager upstream not started")
	up.values <- 5
	eventually(t, func() bool { return s.Value() == 5 }, "value not shared")
	assert.Equal(t, 0, s.SubscriptionCount().Value())
}

func TestStateIn_LazilyWaitsForFirstReader(t *testing.T) {
	up := newTrackedUpstream()
	s := StateIn(newScope(t), up.flow(), Lazily, 0)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), up.starts.Load(), "lazy upstream started without readers")

	stop := readers(s, 1)
	eventually(t, func() bool { return up.active.Load() == 1 }, "lazy upstream not started")
	stop()

	// 读者离开后保持收集
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), up.active.Load())
}

func TestStateIn_WhileSubscribedStopsAfterTimeout(t *testing.T) {
	clk := clock.NewMock()
	up := newTrackedUpstream()
	s := StateIn(newScope(t), up.flow(),
		WhileSubscribed(StopTimeout(5*time.Second), WithClock(clk)), -1)

	stop := readers(s, 2)
	eventually(t, func() bool { return up.active.Load() == 1 }, "upstream not started")
	up.values <- 1
	eventually(t, func() bool { return s.Value() == 1 }, "value not shared")
	stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), up.active.Load(), "stopped before the timeout elapsed")

	eventually(t, func() bool {
		clk.Add(time.Second)
		return up.active.Load() == 0
	}, "upstream not stopped after the timeout")
	assert.Equal(t, 1, s.Value(), "cached value kept after stop")

	stop = readers(s, 1)
	defer stop()
	eventually(t, func() bool { return up.starts.Load() == 2 }, "upstream not restarted")
	assert.Equal(t, int32(1), up.max.Load())
}

func TestStateIn_ResetOnStopAndReset(t *testing.T) {
	up := newTrackedUpstream()
	s := StateIn(newScope(t), up.flow(), WhileSubscribed(ReplayExpiration(0)), -1, ResetOnStopAndReset())

	stop := readers(s, 1)
	eventually(t, func() bool { return up.active.Load() == 1 }, "upstream not started")
	up.values <- 9
	eventually(t, func() bool { return s.Value() == 9 }, "value not shared")
	stop()

	eventually(t, func() bool { return up.active.Load() == 0 }, "upstream not stopped")
	eventually(t, func() bool { return s.Value() == -1 }, "value not reset")
}

func TestStateIn_StopAndResetKeepsValueByDefault(t *testing.T) {
	up := newTrackedUpstream()
	s := StateIn(newScope(t), up.flow(), WhileSubscribed(ReplayExpiration(0)), -1)

	stop := readers(s, 1)
	eventually(t, func() bool { return up.active.Load() == 1 }, "upstream not started")
	up.values <- 9
	eventually(t, func() bool { return s.Value() == 9 }, "value not shared")
	stop()

	eventually(t, func() bool { return up.active.Load() == 0 }, "upstream not stopped")
	assert.Equal(t, 9, s.Value())
}

func TestStateIn_StartedFuncDeduplicatesCommands(t *testing.T) {
	commands := make(chan pkgif.SharingCommand, 8)
	started := StartedFunc(func(pkgif.StateFlow[int]) pkgif.Flow[pkgif.SharingCommand] {
		return flow.New(func(ctx context.Context, emit pkgif.Collector[pkgif.SharingCommand]) error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case c := <-commands:
					if err := emit(c); err != nil {
						return err
					}
				}
			}
		})
	})

	up := newTrackedUpstream()
	StateIn(newScope(t), up.flow(), started, 0)

	commands <- pkgif.SharingStart
	commands <- pkgif.SharingStart
	eventually(t, func() bool { return up.active.Load() == 1 }, "upstream not started")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), up.starts.Load(), "duplicate START restarted upstream")

	commands <- pkgif.SharingStop
	eventually(t, func() bool { return up.active.Load() == 0 }, "upstream not stopped")

	commands <- pkgif.SharingStart
	eventually(t, func() bool { return up.starts.Load() == 2 }, "upstream not restarted")
	assert.Equal(t, int32(1), up.max.Load())
}

// ============================================================================
// 启动时序
// ============================================================================

func TestStateIn_EagerlyDoesNotPreemptSameContextWork(t *testing.T) {
	main := dispatch.NewSerial("main", 16)
	main.Start()
	defer main.Stop(context.Background())

	scope := lifecycle.NewScope(context.Background(), lifecycle.WithDispatcher(main))
	defer scope.Close(context.Background())

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(e string) {
		mu.Lock()
		order = append(order, e)
		mu.Unlock()
	}

	upstream := flow.New(func(ctx context.Context, emit pkgif.Collector[int]) error {
		record("upstream")
		return emit(1)
	})

	require.NoError(t, dispatch.Run(context.Background(), main, func(context.Context) error {
		StateIn(scope, upstream, Eagerly, 0)
		record("same-context")
		return nil
	}))

	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, "upstream not started")
	assert.Equal(t, []string{"same-context", "upstream"}, order)
}

func TestStateIn_LazilySeesSameContextSubscription(t *testing.T) {
	main := dispatch.NewSerial("main", 16)
	main.Start()
	defer main.Stop(context.Background())

	scope := lifecycle.NewScope(context.Background(), lifecycle.WithDispatcher(main))
	defer scope.Close(context.Background())

	up := newTrackedUpstream()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, dispatch.Run(context.Background(), main, func(context.Context) error {
		s := StateIn(scope, up.flow(), Lazily, 0)
		go func() { _ = s.Collect(ctx, func(int) error { return nil }) }()
		return nil
	}))

	eventually(t, func() bool { return up.active.Load() == 1 }, "same-context subscription missed")
}

// ============================================================================
// 失败与取消
// ============================================================================

func TestStateIn_UpstreamFailureKeepsStaleValue(t *testing.T) {
	boom := errors.New("boom")
	upstream := flow.New(func(ctx context.Context, emit pkgif.Collector[int]) error {
		if err := emit(1); err != nil {
			return err
		}
		return boom
	})

	s := StateIn(newScope(t), upstream, Eagerly, 0)

	err := s.Job().Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Job().Err(), boom)
	assert.Equal(t, 1, s.Value())
}

func TestStateIn_ScopeCancelTearsDownUpstream(t *testing.T) {
	up := newTrackedUpstream()
	scope := lifecycle.NewScope(context.Background())
	s := StateIn(scope, up.flow(), Eagerly, 0)
	eventually(t, func() bool { return up.active.Load() == 1 }, "upstream not started")

	require.NoError(t, scope.Close(context.Background()))
	assert.Equal(t, int32(0), up.active.Load())
	assert.False(t, s.Job().IsActive())
}

// ============================================================================
// StateInAwait
// ============================================================================

func TestStateInAwait_ReturnsFirstValue(t *testing.T) {
	for name, started := range map[string]pkgif.SharingStarted{
		"eagerly":         Eagerly,
		"lazily":          Lazily,
		"whileSubscribed": WhileSubscribed(),
	} {
		started := started
		t.Run(name, func(t *testing.T) {
			up := newTrackedUpstream()
			go func() {
				time.Sleep(20 * time.Millisecond)
				up.values <- 42
			}()

			s, err := StateInAwait(context.Background(), newScope(t), up.flow(), started)
			require.NoError(t, err)
			assert.Equal(t, 42, s.Value())
		})
	}
}

func TestStateInAwait_UpstreamCompletesWithoutValue(t *testing.T) {
	_, err := StateInAwait(context.Background(), newScope(t), flow.Empty[int](), Eagerly)
	assert.ErrorIs(t, err, ErrNoValue)
}

func TestStateInAwait_UpstreamFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := StateInAwait(context.Background(), newScope(t), flow.Error[int](boom), Lazily)
	assert.ErrorIs(t, err, ErrNoValue)
	assert.ErrorIs(t, err, boom)
}

func TestStateInAwait_ValueThenCompletion(t *testing.T) {
	s, err := StateInAwait(context.Background(), newScope(t), flow.Of(7), Eagerly)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Value())
}

func TestStateInAwait_ContextCancelled(t *testing.T) {
	up := newTrackedUpstream()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s, err := StateInAwait(ctx, newScope(t), up.flow(), Lazily)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	eventually(t, func() bool { return up.active.Load() == 0 }, "sharing not cancelled")
}

func TestStateInAwait_ScopeCancelled(t *testing.T) {
	scope := lifecycle.NewScope(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		scope.Cancel()
	}()

	_, err := StateInAwait(context.Background(), scope, flow.Never[int](), Eagerly)
	assert.ErrorIs(t, err, ErrNoValue)
}

// ============================================================================
// 端到端
// ============================================================================

func TestStateIn_LazyEndToEnd(t *testing.T) {
	var subscribedAt atomic.Int64
	start := time.Now()
	upstream := flow.New(func(ctx context.Context, emit pkgif.Collector[int]) error {
		subscribedAt.Store(int64(time.Since(start)))
		for i := 1; i <= 3; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
			if err := emit(i); err != nil {
				return err
			}
		}
		return nil
	})

	s := StateIn(newScope(t), upstream, Lazily, 0)

	time.Sleep(50 * time.Millisecond)
	attachedAt := time.Since(start)
	assert.Zero(t, subscribedAt.Load(), "upstream subscribed before the reader attached")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	last, err := flow.FirstWhere[int](ctx, s, func(v int) bool { return v == 3 })
	require.NoError(t, err)
	assert.Equal(t, 3, last)
	assert.GreaterOrEqual(t, time.Duration(subscribedAt.Load()), attachedAt)
	assert.Equal(t, 3, s.Value())
}

// ============================================================================
// Fx 模块
// ============================================================================

func TestModule_WhileSubscribedDefaults(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Sharing.StopTimeout = config.Duration(3 * time.Second)

	var settings *Settings
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&settings),
	)
	app.RequireStart()
	defer app.RequireStop()

	w, ok := settings.WhileSubscribed().(*whileSubscribed)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, w.stopTimeout)
	assert.Equal(t, time.Duration(-1), w.replayExpiration)

	w, ok = settings.WhileSubscribed(StopTimeout(time.Second)).(*whileSubscribed)
	require.True(t, ok)
	assert.Equal(t, time.Second, w.stopTimeout)

	var nilSettings *Settings
	w = nilSettings.WhileSubscribed().(*whileSubscribed)
	assert.Equal(t, 5*time.Second, w.stopTimeout)
}
