package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
// Immediate 测试
// ============================================================================

func TestImmediate_RunsInline(t *testing.T) {
	ran := false
	err := Immediate().Dispatch(context.Background(), func(context.Context) { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestImmediate_RejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Immediate().Dispatch(ctx, func(context.Context) { t.Fatal("must not run") })
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// Serial 测试
// ============================================================================

func TestSerial_FIFO(t *testing.T) {
	s := NewSerial("main", 16)
	s.Start()
	defer s.Stop(context.Background())

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, s.Dispatch(context.Background(), func(context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestSerial_QueuedBeforeStart(t *testing.T) {
	s := NewSerial("main", 4)

	done := make(chan struct{})
	require.NoError(t, s.Dispatch(context.Background(), func(context.Context) { close(done) }))
	assert.Equal(t, 1, s.Pending())

	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queued task never ran")
	}
}

func TestSerial_SameContextRunsInline(t *testing.T) {
	s := NewSerial("main", 4)
	s.Start()
	defer s.Stop(context.Background())

	// 在 main 内部同步等待 main 上的任务，不能死锁
	err := Run(context.Background(), s, func(ctx context.Context) error {
		assert.True(t, s.IsCurrent(ctx))
		return Run(ctx, s, func(inner context.Context) error {
			assert.True(t, s.IsCurrent(inner))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestSerial_QueueFull(t *testing.T) {
	s := NewSerial("main", 1)
	require.NoError(t, s.Dispatch(context.Background(), func(context.Context) {}))

	err := s.Dispatch(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestSerial_Stopped(t *testing.T) {
	s := NewSerial("main", 1)
	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	err := s.Dispatch(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestSerial_RecoversPanic(t *testing.T) {
	s := NewSerial("main", 4)
	s.Start()
	defer s.Stop(context.Background())

	require.NoError(t, s.Dispatch(context.Background(), func(context.Context) { panic("boom") }))

	err := Run(context.Background(), s, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

// ============================================================================
// Pool 测试
// ============================================================================

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool("background", 2)

	var (
		running atomic.Int32
		peak    atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.NoError(t, p.Dispatch(context.Background(), func(context.Context) {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}))
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	require.NoError(t, p.Stop(context.Background()))
	assert.ErrorIs(t, p.Dispatch(context.Background(), func(context.Context) {}), ErrStopped)
}

// ============================================================================
// Run 测试
// ============================================================================

func TestRun_ReturnsTaskError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), NewPool("bg", 1), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRun_SkipsWhenCancelledBeforeStart(t *testing.T) {
	s := NewSerial("main", 4)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	var ran atomic.Bool
	go func() {
		errCh <- Run(ctx, s, func(context.Context) error {
			ran.Store(true)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return s.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	s.Start()
	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, ran.Load())
}

func TestRun_WaitsOnceStarted(t *testing.T) {
	s := NewSerial("main", 4)
	s.Start()
	defer s.Stop(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var finished atomic.Bool

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, s, func(context.Context) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			return nil
		})
	}()

	<-started
	cancel()
	assert.NoError(t, <-errCh)
	assert.True(t, finished.Load())
}

func TestRunUncancellable_RunsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSerial("main", 4)
	s.Start()
	defer s.Stop(context.Background())

	var ran atomic.Bool
	err := RunUncancellable(ctx, s, func(ctx context.Context) error {
		ran.Store(true)
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestRunUncancellable_FallsBackWhenStopped(t *testing.T) {
	s := NewSerial("main", 4)
	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	var ran atomic.Bool
	err := RunUncancellable(context.Background(), s, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

// ============================================================================
// Fx 模块测试
// ============================================================================

type dispatchers struct {
	fx.In

	Main       pkgif.Dispatcher `name:"main"`
	Background pkgif.Dispatcher `name:"background"`
}

func TestModule_Lifecycle(t *testing.T) {
	var d dispatchers
	app := fxtest.New(t,
		Module(),
		fx.Populate(&d),
	)
	app.RequireStart()

	require.NotNil(t, d.Main)
	require.NotNil(t, d.Background)
	assert.Equal(t, "main", d.Main.Name())
	assert.Same(t, d.Main, Select("main", d.Main, d.Background))
	assert.Equal(t, "immediate", Select("immediate", d.Main, d.Background).Name())

	var ran atomic.Bool
	require.NoError(t, Run(context.Background(), d.Main, func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	assert.True(t, ran.Load())

	app.RequireStop()
	assert.ErrorIs(t, d.Main.Dispatch(context.Background(), func(context.Context) {}), ErrStopped)
}
